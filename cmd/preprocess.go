package cmd

import (
	"github.com/spf13/cobra"
)

func newPreprocessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess",
		Short: "Normalizes the raw dataset into the topic-labeled corpus",
		RunE:  runPreprocess,
	}
}

func runPreprocess(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	_, err = appInstance.Preprocess(cmd.Context())
	return err
}
