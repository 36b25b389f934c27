package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/wppbot/internal/api"
	"github.com/matheus3301/wppbot/internal/session"
	"github.com/spf13/cobra"
)

const defaultTimeout = 10 * time.Second

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	session string
	json    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "wppbotctl",
		Short:         "Control a running wppbotd",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&g.session, "session", "", "session name (overrides config default)")
	cmd.PersistentFlags().BoolVar(&g.json, "json", false, "output in JSON format")

	cmd.AddCommand(
		newStatusCmd(g),
		newSendCmd(g),
		newContactsCmd(g),
		newContactCmd(g),
		newGroupsCmd(g),
		newSyncCmd(g),
		newMessagesCmd(g),
		newSearchCmd(g),
		newTemplatesCmd(g),
		newConfigCmd(g),
		newPairCmd(g),
		newWatchCmd(g),
	)
	return cmd
}

// dial connects to the daemon of the selected session.
func (g *globals) dial() (*api.Client, string, error) {
	name, err := session.Resolve(g.session)
	if err != nil {
		return nil, "", err
	}
	c, err := api.Dial(session.SocketPath(name))
	if err != nil {
		return nil, "", fmt.Errorf("cannot connect to daemon for session %q: %w", name, err)
	}
	return c, name, nil
}

// run dials the daemon and calls fn with a bounded context.
func (g *globals) run(timeout time.Duration, fn func(ctx context.Context, c *api.Client) error) error {
	c, _, err := g.dial()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, c)
}

// print writes v as JSON when --json is set, otherwise calls human.
func (g *globals) print(v any, human func()) {
	if g.json {
		outputJSON(v)
		return
	}
	human()
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func formatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
