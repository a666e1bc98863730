// Copyright Contributors to the KubeOpenCode project

// operator is the controller binary for the agents.platform DocsRun/CodeRun
// CRDs: it runs the two reconcilers and a minimal admin HTTP server as
// sibling goroutines under one cancellation context.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
	"github.com/5dlabs/platform-sub001/internal/adminserver"
	"github.com/5dlabs/platform-sub001/internal/config"
	"github.com/5dlabs/platform-sub001/internal/controller"
)

var scheme = clientgoscheme.Scheme

func init() {
	utilruntime.Must(agentsv1.AddToScheme(scheme))
}

var (
	configPath          string
	metricsAddress      string
	adminAddress        string
	enableLeaderElection bool
	developmentLogging  bool
)

var rootCmd = &cobra.Command{
	Use:   "operator",
	Short: "agents.platform DocsRun/CodeRun controller",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "/etc/agents-platform/config.yaml",
		"Path to the operator's YAML configuration file.")
	rootCmd.Flags().StringVar(&metricsAddress, "metrics-bind-address", ":8080",
		"The address the controller-runtime metrics endpoint binds to.")
	rootCmd.Flags().StringVar(&adminAddress, "admin-bind-address", ":8081",
		"The address the admin health/ready server binds to.")
	rootCmd.Flags().BoolVar(&enableLeaderElection, "leader-elect", true,
		"Enable leader election so only one operator replica reconciles at a time.")
	rootCmd.Flags().BoolVar(&developmentLogging, "development", false,
		"Use a human-readable development logging encoder instead of JSON.")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if developmentLogging {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cmd *cobra.Command, args []string) error {
	zapLog, err := newLogger()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer zapLog.Sync() //nolint:errcheck
	ctrl.SetLogger(zapr.NewLogger(zapLog))
	log := ctrl.Log.WithName("operator")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: metricsAddress},
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       "agents-platform-operator-lock",
		HealthProbeBindAddress: "0", // the admin server covers health/ready instead
	})
	if err != nil {
		return fmt.Errorf("creating manager: %w", err)
	}

	if err := (&controller.DocsRunReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
		Config: cfg,
	}).SetupWithManager(mgr); err != nil {
		return fmt.Errorf("setting up DocsRun controller: %w", err)
	}
	if err := (&controller.CodeRunReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
		Config: cfg,
	}).SetupWithManager(mgr); err != nil {
		return fmt.Errorf("setting up CodeRun controller: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	admin := adminserver.New(adminserver.Options{Address: adminAddress}, mgr.GetClient())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting manager")
		return mgr.Start(gCtx)
	})
	g.Go(func() error {
		return admin.Run(gCtx)
	})

	if err := g.Wait(); err != nil && gCtx.Err() == nil {
		log.Error(err, "operator exited with error")
		return err
	}
	return nil
}
