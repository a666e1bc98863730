// Copyright Contributors to the KubeOpenCode project

// Ginkgo bootstrap for the reconciler suites below. Unlike the teacher's own
// envtest-backed suite (lost to distillation along with its bootstrap file),
// this suite runs against a fake client the way jordigilh-kubernaut's own
// controller suites do, so these specs run as plain `go test` with no
// control-plane binary required.
package controller

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
	"github.com/5dlabs/platform-sub001/internal/config"
)

func TestControllerSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "DocsRun/CodeRun Reconciler Suite")
}

var ginkgoScheme *runtime.Scheme

var _ = BeforeSuite(func() {
	ginkgoScheme = runtime.NewScheme()
	Expect(agentsv1.AddToScheme(ginkgoScheme)).To(Succeed())
	Expect(batchv1.AddToScheme(ginkgoScheme)).To(Succeed())
	Expect(corev1.AddToScheme(ginkgoScheme)).To(Succeed())
})

func newGinkgoClient(objs ...client.Object) client.Client {
	return fake.NewClientBuilder().
		WithScheme(ginkgoScheme).
		WithStatusSubresource(&agentsv1.DocsRun{}, &agentsv1.CodeRun{}).
		WithObjects(objs...).
		Build()
}

func ginkgoConfig() config.Config {
	cfg := config.Default()
	cfg.Job.AgentImage = "ghcr.io/5dlabs/agent:v1"
	return cfg
}

var ginkgoCtx = context.Background()
