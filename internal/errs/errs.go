// Copyright Contributors to the KubeOpenCode project

// Package errs defines the sentinel error taxonomy shared by the config
// loader, renderer, resource builder and reconcilers. Callers classify an
// error with errors.Is / errors.As rather than string matching. The
// reconcilers report any failure to materialize a run's ConfigMap or Job
// under the TemplateError condition reason, whichever error caused it.
package errs

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Sentinel errors wrapped by the concrete errors each package returns.
var (
	// ErrConfig covers malformed or failed-validation operator configuration.
	ErrConfig = errors.New("invalid operator configuration")

	// ErrTemplate covers template parse or execute failures in the renderer.
	ErrTemplate = errors.New("template render failed")

	// ErrMissingCredential covers a referenced Secret that does not resolve
	// to a usable credential for the requested githubUser/githubApp.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidSpec covers a run spec that fails operator-side validation
	// beyond what the CRD's OpenAPI schema already enforces.
	ErrInvalidSpec = errors.New("invalid run spec")
)

// ConfigError wraps ErrConfig with the offending field or reason.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid operator configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid operator configuration: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// NewConfigError builds a ConfigError, optionally wrapping a cause.
func NewConfigError(reason string, cause error) *ConfigError {
	return &ConfigError{Reason: reason, Err: cause}
}

// TemplateError wraps ErrTemplate with the artifact name that failed.
type TemplateError struct {
	Artifact string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template render failed: %s: %v", e.Artifact, e.Err)
}

func (e *TemplateError) Unwrap() error { return errors.Join(ErrTemplate, e.Err) }

// NewTemplateError builds a TemplateError for the named artifact.
func NewTemplateError(artifact string, cause error) *TemplateError {
	return &TemplateError{Artifact: artifact, Err: cause}
}

// IsNotFound reports whether err is a Kubernetes API "not found" error.
// Exported so callers outside this package don't need a direct
// k8s.io/apimachinery/pkg/api/errors import solely for this check.
func IsNotFound(err error) bool {
	return apierrors.IsNotFound(err)
}

// IsConflict reports whether err is a Kubernetes API optimistic-lock conflict,
// which the reconcilers tolerate on object creation instead of failing.
func IsConflict(err error) bool {
	return apierrors.IsConflict(err)
}

// IsTransient reports whether err is the kind of cluster-API error a
// reconciler should requeue rather than surface as a terminal Failed phase.
func IsTransient(err error) bool {
	return apierrors.IsConflict(err) || apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) || apierrors.IsTooManyRequests(err) ||
		apierrors.IsServiceUnavailable(err)
}
