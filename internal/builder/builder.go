// Copyright Contributors to the KubeOpenCode project

// Package builder materializes the ConfigMap and Job a DocsRun or CodeRun
// needs to execute: a rendered artifact bundle mounted into the agent
// container, a git-init container per repository to clone, and credential
// wiring resolved from the operator's SecretsConfig. Build functions are
// pure given their inputs; callers (the reconcilers) are responsible for
// creating/updating the returned objects against the cluster.
package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
	"github.com/5dlabs/platform-sub001/internal/config"
	"github.com/5dlabs/platform-sub001/internal/render"
)

const (
	// DefaultHomeDir and DefaultShell give agent containers a writable HOME
	// and a working SHELL regardless of the random UID SCC assigns them.
	DefaultHomeDir = "/tmp"
	DefaultShell   = "/bin/bash"

	workspaceDir  = "/workspace"
	bundleDir     = render.BundleDir
	bundleVolume  = "bundle"
	workspaceVol  = "workspace"
	gitRoot       = render.GitRoot
	gitVolumeName = "repo"

	backoffLimit int32 = 0
)

// RepoRef names a single repository a git-init container should clone.
type RepoRef struct {
	Name string // container/volume suffix, e.g. "main" or "docs"
	URL  string
	Ref  string
	Path string // subdirectory of interest within the cloned tree; not used by BuildJob
}

// CredentialRefs resolves the Secret names the agent container needs,
// computed from config.SecretsConfig plus a run's githubUser; githubApp is
// not consulted.
type CredentialRefs struct {
	APIKeySecretName string
	APIKeySecretKey  string
	GitHubSSHSecret  string // empty if githubUser unset
	GitHubTokenSecret string // empty if githubUser unset
}

// ResolveCredentials builds CredentialRefs for a githubUser-style run.
func ResolveCredentials(cfg config.Config, githubUser string) CredentialRefs {
	refs := CredentialRefs{
		APIKeySecretName: cfg.Secrets.APIKeySecretName,
		APIKeySecretKey:  cfg.Secrets.APIKeySecretKey,
	}
	if githubUser != "" {
		refs.GitHubSSHSecret = cfg.Secrets.GitHubSSHSecretPrefix + githubUser
		refs.GitHubTokenSecret = cfg.Secrets.GitHubTokenSecretPrefix + githubUser
	}
	return refs
}

// BuildSpec is the common input to BuildConfigMap/BuildJob shared by both
// run kinds; the reconcilers populate it from the typed CRD spec.
type BuildSpec struct {
	RunKind      string // agentsv1.KindDocs or agentsv1.KindCode
	RunName      string
	Namespace    string
	OwnerRef     metav1.OwnerReference
	Repos        []RepoRef
	Credentials  CredentialRefs
	Model        string
	Env          map[string]string
	EnvFromSecrets []agentsv1.EnvFromSecretRef
	ContextVersion uint32 // labeled on the Job so retries are distinguishable
	Service        string // CodeRun only: mounts workspace-<Service> read-write instead of an emptyDir
}

// buildObjectName is stable across reconciles of the same ContextVersion so
// repeated reconciles of an unchanged spec are no-ops. This is the Job name.
func buildObjectName(kind, run string, contextVersion uint32) string {
	if contextVersion == 0 {
		return fmt.Sprintf("%s-%s", kind, run)
	}
	return fmt.Sprintf("%s-%s-v%d", kind, run, contextVersion)
}

// buildConfigMapName follows spec.md's data-model convention for the
// artifact ConfigMap, distinct from the Job name: "<kind>-<name>-cfg" for a
// run with no contextVersion (DocsRun), "<kind>-<name>-cfg-<contextVersion>"
// once one is set (CodeRun).
func buildConfigMapName(kind, run string, contextVersion uint32) string {
	if contextVersion == 0 {
		return fmt.Sprintf("%s-%s-cfg", kind, run)
	}
	return fmt.Sprintf("%s-%s-cfg-%d", kind, run, contextVersion)
}

// ObjectName returns the Job name this BuildSpec would produce, letting
// callers look up an already-built object without rebuilding it.
func (b BuildSpec) ObjectName() string {
	return buildObjectName(b.RunKind, b.RunName, b.ContextVersion)
}

// ConfigMapName returns the artifact ConfigMap name this BuildSpec would
// produce. Deliberately distinct from ObjectName: the ConfigMap and the Job
// for a run are two different objects with two different names (spec.md §3).
func (b BuildSpec) ConfigMapName() string {
	return buildConfigMapName(b.RunKind, b.RunName, b.ContextVersion)
}

// contentHash hashes the stable, sorted-key JSON encoding of v so equal
// inputs always hash identically regardless of map iteration order.
func contentHash(v any) string {
	raw, _ := json.Marshal(v)
	var generic any
	_ = json.Unmarshal(raw, &generic)
	stable, _ := json.Marshal(sortKeys(generic))
	sum := sha256.Sum256(stable)
	return hex.EncodeToString(sum[:])[:16]
}

// sortKeys recursively rewrites maps into a form json.Marshal already
// serializes in sorted key order (Go's encoding/json does this for
// map[string]any), so sortKeys exists mainly to normalize nested slices of
// maps uniformly; for the shapes used here json.Marshal's built-in map
// ordering is sufficient and this is effectively an identity pass.
func sortKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[k] = sortKeys(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sortKeys(e)
		}
		return out
	default:
		return v
	}
}

func baseLabels(spec BuildSpec) map[string]string {
	return map[string]string{
		agentsv1.LabelApp:  agentsv1.AppName,
		agentsv1.LabelKind: spec.RunKind,
		agentsv1.LabelRun:  spec.RunName,
	}
}

// WorkspacePVCName returns the shared workspace PVC name for service,
// stable across every CodeRun (and every contextVersion) targeting it.
func WorkspacePVCName(service string) string {
	return "workspace-" + service
}

// BuildWorkspacePVC constructs the PVC a service's CodeRuns share, bearing
// no owner reference so it outlives any single run's deletion. Callers are
// expected to create it only when a Get for WorkspacePVCName returns
// NotFound; construction is otherwise idempotent (no content-hash tracking,
// since this object is never updated once created).
func BuildWorkspacePVC(namespace, service string, cfg config.Config) *corev1.PersistentVolumeClaim {
	qty := resource.MustParse(cfg.Job.WorkspaceStorageSize)
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      WorkspacePVCName(service),
			Namespace: namespace,
			Labels: map[string]string{
				agentsv1.LabelApp:     agentsv1.AppName,
				agentsv1.LabelService: service,
			},
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: qty},
			},
		},
	}
	if cfg.Job.WorkspaceStorageClass != "" {
		pvc.Spec.StorageClassName = &cfg.Job.WorkspaceStorageClass
	}
	return pvc
}

// BuildConfigMap wraps an already rendered artifact bundle in a ConfigMap
// named after the run and contextVersion.
func BuildConfigMap(spec BuildSpec, bundle render.Bundle) *corev1.ConfigMap {
	name := buildConfigMapName(spec.RunKind, spec.RunName, spec.ContextVersion)
	data := bundle.ToConfigMapData()
	labels := baseLabels(spec)
	labels[agentsv1.LabelContentHash] = contentHash(data)
	if spec.ContextVersion > 0 {
		labels[agentsv1.LabelContextVersion] = fmt.Sprintf("%d", spec.ContextVersion)
	}
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:            name,
			Namespace:       spec.Namespace,
			Labels:          labels,
			OwnerReferences: []metav1.OwnerReference{spec.OwnerRef},
		},
		Data: data,
	}
}

func gitInitContainer(repo RepoRef, image string) corev1.Container {
	ref := repo.Ref
	if ref == "" {
		ref = "HEAD"
	}
	return corev1.Container{
		Name:  "git-init-" + repo.Name,
		Image: image,
		Env: []corev1.EnvVar{
			{Name: "GIT_REPO", Value: repo.URL},
			{Name: "GIT_REF", Value: ref},
			{Name: "GIT_DEST", Value: gitRoot + "/" + repo.Name},
		},
		VolumeMounts: []corev1.VolumeMount{
			{Name: gitVolumeName, MountPath: gitRoot},
		},
	}
}

func credentialEnv(creds CredentialRefs) []corev1.EnvVar {
	env := []corev1.EnvVar{
		{Name: "HOME", Value: DefaultHomeDir},
		{Name: "SHELL", Value: DefaultShell},
	}
	if creds.APIKeySecretName != "" {
		env = append(env, corev1.EnvVar{
			Name: "AGENT_API_KEY",
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: creds.APIKeySecretName},
					Key:                  creds.APIKeySecretKey,
				},
			},
		})
	}
	if creds.GitHubTokenSecret != "" {
		env = append(env, corev1.EnvVar{
			Name: "GITHUB_TOKEN",
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: creds.GitHubTokenSecret},
					Key:                  "token",
					Optional:             boolPtr(true),
				},
			},
		})
	}
	return env
}

func credentialVolumes(creds CredentialRefs) ([]corev1.Volume, []corev1.VolumeMount) {
	if creds.GitHubSSHSecret == "" {
		return nil, nil
	}
	mode := int32(0o600)
	return []corev1.Volume{
			{
				Name: "github-ssh",
				VolumeSource: corev1.VolumeSource{
					Secret: &corev1.SecretVolumeSource{
						SecretName:  creds.GitHubSSHSecret,
						DefaultMode: &mode,
						Optional:    boolPtr(true),
					},
				},
			},
		}, []corev1.VolumeMount{
			{Name: "github-ssh", MountPath: "/etc/github-ssh", ReadOnly: true},
		}
}

func boolPtr(b bool) *bool { return &b }

// telemetryEnv surfaces the operator's OTLP configuration to the agent
// container so it can export its own traces/logs; empty fields are omitted
// rather than exported as blank env vars.
func telemetryEnv(t config.TelemetryConfig) []corev1.EnvVar {
	var env []corev1.EnvVar
	add := func(name, value string) {
		if value != "" {
			env = append(env, corev1.EnvVar{Name: name, Value: value})
		}
	}
	add("OTEL_EXPORTER_OTLP_ENDPOINT", t.OTLPEndpoint)
	add("OTEL_EXPORTER_OTLP_PROTOCOL", t.OTLPProtocol)
	add("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", t.LogsEndpoint)
	add("OTEL_EXPORTER_OTLP_LOGS_PROTOCOL", t.LogsProtocol)
	return env
}

// BuildJob assembles the Job that executes spec against the ConfigMap built
// by BuildConfigMap. The Pod template's container construction follows the
// same dual-path credential mounting and SCC-safe environment as the
// operator's single-container agent image; the Job wrapper itself (strict
// no-retry BackoffLimit, Parallelism/Completions of 1) exists because AI
// agent runs are not idempotent and a kubelet-restarted attempt would
// duplicate side effects like opened pull requests.
func BuildJob(spec BuildSpec, cfg config.Config, cm *corev1.ConfigMap) *batchv1.Job {
	name := buildObjectName(spec.RunKind, spec.RunName, spec.ContextVersion)

	var volumes []corev1.Volume
	var mounts []corev1.VolumeMount
	var initContainers []corev1.Container

	// CodeRun Jobs mount the service's shared workspace PVC so session state
	// (and the agent's on-disk session ID) survives a contextVersion retry;
	// DocsRun has no Service and gets an ephemeral emptyDir instead.
	workspaceSource := corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}
	if spec.Service != "" {
		workspaceSource = corev1.VolumeSource{
			PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
				ClaimName: WorkspacePVCName(spec.Service),
			},
		}
	}
	volumes = append(volumes,
		corev1.Volume{Name: workspaceVol, VolumeSource: workspaceSource},
		corev1.Volume{Name: gitVolumeName, VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}},
		corev1.Volume{
			Name: bundleVolume,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: cm.Name},
				},
			},
		},
	)
	mounts = append(mounts,
		corev1.VolumeMount{Name: workspaceVol, MountPath: workspaceDir},
		corev1.VolumeMount{Name: gitVolumeName, MountPath: gitRoot},
		corev1.VolumeMount{Name: bundleVolume, MountPath: bundleDir, ReadOnly: true},
	)

	for _, repo := range spec.Repos {
		initContainers = append(initContainers, gitInitContainer(repo, cfg.Job.AgentImage))
	}

	credVolumes, credMounts := credentialVolumes(spec.Credentials)
	volumes = append(volumes, credVolumes...)
	mounts = append(mounts, credMounts...)

	env := credentialEnv(spec.Credentials)
	env = append(env,
		corev1.EnvVar{Name: "RUN_NAME", Value: spec.RunName},
		corev1.EnvVar{Name: "RUN_NAMESPACE", Value: spec.Namespace},
		corev1.EnvVar{Name: "RUN_MODEL", Value: spec.Model},
		corev1.EnvVar{Name: "WORKSPACE_DIR", Value: workspaceDir},
		corev1.EnvVar{Name: "BUNDLE_DIR", Value: bundleDir},
		corev1.EnvVar{Name: "PR_URL_FILE", Value: workspaceDir + "/.pr-url"},
	)
	for k, v := range spec.Env {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}
	for _, ref := range spec.EnvFromSecrets {
		env = append(env, corev1.EnvVar{
			Name: ref.Name,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: ref.SecretName},
					Key:                  ref.SecretKey,
				},
			},
		})
	}
	if cfg.Telemetry.Enabled {
		env = append(env, telemetryEnv(cfg.Telemetry)...)
	}

	agentContainer := corev1.Container{
		Name:            "agent",
		Image:           cfg.Job.AgentImage,
		ImagePullPolicy: corev1.PullIfNotPresent,
		Command:         []string{"sh", bundleDir + "/entrypoint.sh"},
		Env:             env,
		VolumeMounts:    mounts,
	}

	podLabels := baseLabels(spec)

	podSpec := corev1.PodSpec{
		ServiceAccountName: cfg.Job.ServiceAccountName,
		RestartPolicy:      corev1.RestartPolicyNever,
		InitContainers:     initContainers,
		Containers:         []corev1.Container{agentContainer},
		Volumes:            volumes,
	}
	if cfg.Job.ImagePullSecret != "" {
		podSpec.ImagePullSecrets = []corev1.LocalObjectReference{{Name: cfg.Job.ImagePullSecret}}
	}

	jobLabels := baseLabels(spec)
	jobLabels[agentsv1.LabelContentHash] = contentHash(podSpec)
	if spec.ContextVersion > 0 {
		jobLabels[agentsv1.LabelContextVersion] = fmt.Sprintf("%d", spec.ContextVersion)
	}

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:            name,
			Namespace:       spec.Namespace,
			Labels:          jobLabels,
			OwnerReferences: []metav1.OwnerReference{spec.OwnerRef},
		},
		Spec: batchv1.JobSpec{
			Parallelism:  int32Ptr(1),
			Completions:  int32Ptr(1),
			BackoffLimit: int32Ptr(backoffLimit),
			ActiveDeadlineSeconds: int64Ptr(cfg.Job.ActiveDeadlineSeconds),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: podLabels},
				Spec:       podSpec,
			},
		},
	}
}

func int32Ptr(v int32) *int32 { return &v }
func int64Ptr(v int64) *int64 { return &v }

// ContentHashLabel returns the agents.platform/content-hash value an
// already-built Job or ConfigMap carries. The reconcilers do not call it:
// they treat an existing Job with the expected name as current without
// comparing content hashes.
func ContentHashLabel(labels map[string]string) string {
	return labels[agentsv1.LabelContentHash]
}

// RepoNameFromURL derives a short, stable RepoRef.Name from a repository
// URL for callers that only have the URL (DocsRun has exactly one
// repository, so this mostly matters for CodeRun's two repositories).
func RepoNameFromURL(url string) string {
	trimmed := strings.TrimSuffix(url, ".git")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return "repo"
	}
	return trimmed[idx+1:]
}
