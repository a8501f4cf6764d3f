// Package cmd defines the forumcorpus command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/forum-corpus/internal/app"
	"github.com/JakeFAU/forum-corpus/internal/collector"
	"github.com/JakeFAU/forum-corpus/internal/config"
	"github.com/JakeFAU/forum-corpus/internal/corpus"
	"github.com/JakeFAU/forum-corpus/internal/publisher"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is what the commands drive. Tests swap in a mock through newApp.
type App interface {
	Collect(ctx context.Context) (collector.Summary, error)
	Preprocess(ctx context.Context) (corpus.Result, error)
	Publish(ctx context.Context) (publisher.CorpusReady, bool, error)
	Logger() *zap.Logger
	Close()
}

// newApp is the application factory.
var newApp = func(ctx context.Context, configPath string) (App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

// session remembers the App opened by a command so it can be closed after the
// command returns, whether or not it failed.
type session struct {
	app App
}

// newRootCmd builds the command tree. Running the root command performs the
// whole pipeline.
func newRootCmd(s *session) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "forumcorpus",
		Short: "Builds a topic-modeling corpus from subreddit listings.",
		Long: `forumcorpus walks the top, hot, new, gilded and controversial listings of
each configured subreddit, appends new submissions and comments to a raw CSV
dataset and then normalizes that dataset into a labeled corpus.

Collection resumes after the last subreddit found in an existing raw dataset.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), configPath)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			s.app = appInstance
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
		RunE: runPipeline,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file; FORUMCORPUS_* environment variables override it")
	cmd.AddCommand(newCollectCmd(), newPreprocessCmd(), newPublishCmd())
	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if err := runCollect(cmd, args); err != nil {
		return err
	}
	if err := runPreprocess(cmd, args); err != nil {
		return err
	}
	return runPublish(cmd, args)
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// execute runs the command tree with args (os.Args when nil) and closes the
// App the command opened.
func execute(ctx context.Context, args []string) error {
	s := &session{}
	root := newRootCmd(s)
	if args != nil {
		root.SetArgs(args)
	}
	err := root.ExecuteContext(ctx)
	if s.app != nil {
		s.app.Close()
	}
	return err
}

// Execute runs the command line until it finishes or the process receives
// SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, nil)
	stop()
	if err != nil {
		logger, lerr := zap.NewProduction()
		if lerr != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		logger.Fatal("Command execution failed", zap.Error(err))
	}
}
