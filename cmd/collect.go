package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Collects new subreddit items into the raw dataset",
		Long: `Walks every listing view of each subreddit that is not yet in the raw
dataset and appends the new, long enough, deduplicated items. A subreddit that
refuses access keeps what was gathered before the refusal.`,
		RunE: runCollect,
	}
}

func runCollect(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	sum, err := appInstance.Collect(cmd.Context())
	if err != nil {
		return err
	}
	appInstance.Logger().Debug("collect command finished",
		zap.Strings("subreddits", sum.Subreddits),
		zap.Bool("resumed", sum.Resumed),
	)
	return nil
}
