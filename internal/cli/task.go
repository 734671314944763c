package cli

import (
	"fmt"

	"locforge/internal/api"
	"locforge/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect and control background translation tasks",
	}
	cmd.AddCommand(taskStatusCmd(), taskWaitCmd(), taskCancelCmd())
	return cmd
}

// remoteClient loads config for commands that only talk to the service.
func remoteClient() (*api.Client, error) {
	cfg := config.Load()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LOCFORGE_API_KEY is not set")
	}
	return newClient(cfg), nil
}

func taskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show the state of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			task, err := client.GetTask(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), task)
		},
	}
}

func taskWaitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "wait <id>",
		Short: "Wait for a task to finish and print its translations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.APIKey == "" {
				return fmt.Errorf("LOCFORGE_API_KEY is not set")
			}
			client := newClient(cfg)

			ctx, cancel := setupContext()
			defer cancel()

			if _, err := client.WaitTask(ctx, args[0], cfg.PollInterval, logTaskProgress); err != nil {
				return err
			}
			translations, err := client.TaskResult(ctx, args[0])
			if err != nil {
				return err
			}
			log.Info().Str("task", args[0]).Int("translations", len(translations)).Msg("Task finished")

			// The result uses the same shape apply reads.
			if output == "" {
				return printJSON(cmd.OutOrStdout(), translations)
			}
			content, err := marshalIndent(translations)
			if err != nil {
				return err
			}
			return writeOutput(output, content)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the translations to a file instead of stdout")

	return cmd
}

func taskCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a running task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			if err := client.CancelTask(ctx, args[0]); err != nil {
				return err
			}
			log.Info().Str("task", args[0]).Msg("Task cancelled")
			return nil
		},
	}
}
