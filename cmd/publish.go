package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Archives the corpus and announces it",
		Long: `Copies the preprocessed corpus to the configured blob store and sends a
corpus_ready event to the configured Pub/Sub topic. Does nothing when neither
is configured.`,
		RunE: runPublish,
	}
}

func runPublish(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	ready, ok, err := appInstance.Publish(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	appInstance.Logger().Info("corpus published",
		zap.String("uri", ready.URI),
		zap.String("sha256", ready.SHA256),
		zap.Int("documents", ready.Documents),
	)
	return nil
}
