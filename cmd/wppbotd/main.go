package main

import (
	"fmt"
	"os"

	"github.com/matheus3301/wppbot/internal/daemon"
	"github.com/matheus3301/wppbot/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var sessionFlag, configFlag string

	cmd := &cobra.Command{
		Use:           "wppbotd",
		Short:         "WhatsApp bot daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionName, err := session.Resolve(sessionFlag)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				return err
			}

			app := fx.New(
				daemon.Module(daemon.Params{SessionName: sessionName, ConfigPath: configFlag}),
			)
			if err := app.Err(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				return err
			}
			app.Run()
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionFlag, "session", "", "session name (overrides config default)")
	cmd.Flags().StringVar(&configFlag, "config", "", "config file path (default ~/.wppbot/config.toml)")
	return cmd
}
