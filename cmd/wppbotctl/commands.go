package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/matheus3301/wppbot/internal/api"
	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/status"
	"github.com/matheus3301/wppbot/internal/store"
	"github.com/spf13/cobra"
)

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				resp, err := c.Status(ctx)
				if err != nil {
					return err
				}
				g.print(resp, func() {
					fmt.Printf("Session:   %s\n", resp.Session)
					fmt.Printf("State:     %s\n", resp.State)
					if resp.OwnAddress != "" {
						fmt.Printf("Number:    %s\n", resp.OwnAddress)
					}
					fmt.Printf("Uptime:    %s\n", (time.Duration(resp.Stats.UptimeMs) * time.Millisecond).Round(time.Second))
					fmt.Printf("Received:  %d\n", resp.Stats.MessagesReceived)
					fmt.Printf("Sent:      %d\n", resp.Stats.MessagesSent)
				})
				return nil
			})
		},
	}
}

func newSendCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "send <to> <text>",
		Short: "Send a text message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				resp, err := c.SendText(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				g.print(resp, func() {
					fmt.Printf("Sent %s to %s\n", resp.ID, resp.To)
				})
				return nil
			})
		},
	}
}

func newContactsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List the contact directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				resp, err := c.ListContacts(ctx)
				if err != nil {
					return err
				}
				g.print(resp, func() {
					if len(resp.Contacts) == 0 {
						fmt.Println("No contacts.")
						return
					}
					for _, ct := range resp.Contacts {
						var flags []string
						if ct.IsFavorite {
							flags = append(flags, "favorite")
						}
						if ct.IsBlocked {
							flags = append(flags, "blocked")
						}
						fmt.Printf("%-16s %-28s %s\n", ct.Number, ct.Name, strings.Join(flags, ","))
					}
				})
				return nil
			})
		},
	}
}

func newContactCmd(g *globals) *cobra.Command {
	var (
		favorite, blocked bool
		notes             string
	)
	cmd := &cobra.Command{
		Use:   "contact <number>",
		Short: "Edit a stored contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.UpdateContactRequest{Number: args[0]}
			if cmd.Flags().Changed("favorite") {
				req.Favorite = &favorite
			}
			if cmd.Flags().Changed("blocked") {
				req.Blocked = &blocked
			}
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}
			if req.Favorite == nil && req.Blocked == nil && req.Notes == nil {
				return fmt.Errorf("nothing to update: pass --favorite, --blocked or --notes")
			}
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				updated, err := c.UpdateContact(ctx, req)
				if err != nil {
					return err
				}
				g.print(api.UpdateContactResponse{Updated: updated}, func() {
					if updated {
						fmt.Printf("Updated %s\n", req.Number)
					} else {
						fmt.Printf("No contact %s\n", req.Number)
					}
				})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&favorite, "favorite", false, "mark as favorite")
	cmd.Flags().BoolVar(&blocked, "blocked", false, "mark as blocked")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newGroupsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the group directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				resp, err := c.ListGroups(ctx)
				if err != nil {
					return err
				}
				g.print(resp, func() {
					if len(resp.Groups) == 0 {
						fmt.Println("No groups.")
						return
					}
					for _, gr := range resp.Groups {
						fmt.Printf("%-32s %-28s %d members\n", gr.GroupID, gr.Name, gr.ParticipantsCount)
					}
				})
				return nil
			})
		},
	}
}

func newSyncCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the contact and group directory now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(2*time.Minute, func(ctx context.Context, c *api.Client) error {
				res, err := c.SyncDirectory(ctx)
				if err != nil {
					return err
				}
				g.print(res, func() {
					fmt.Printf("Contacts: %d/%d\n", res.ContactsSaved, res.ContactsTotal)
					fmt.Printf("Groups:   %d/%d\n", res.GroupsSaved, res.GroupsTotal)
					fmt.Printf("Skipped:  %d  Failed: %d  (%dms)\n", res.Skipped, res.Failed, res.DurationMs)
				})
				return nil
			})
		},
	}
}

func printMessage(m messageLine) {
	arrow := "<-"
	peer := m.From
	if m.Direction == store.DirectionSent {
		arrow = "->"
		peer = m.To
	}
	if m.Name != "" {
		peer = m.Name
	}
	fmt.Printf("%s %s %-20s %s\n", formatTime(m.Timestamp), arrow, peer, m.Body)
}

type messageLine struct {
	From, To, Name, Direction, Body string
	Timestamp                       int64
}

func newMessagesCmd(g *globals) *cobra.Command {
	var req api.ListMessagesRequest
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Show the message log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				resp, err := c.ListMessages(ctx, req)
				if err != nil {
					return err
				}
				g.print(resp, func() {
					if len(resp.Messages) == 0 {
						fmt.Println("No messages.")
						return
					}
					for _, m := range resp.Messages {
						printMessage(messageLine{
							From: m.FromNumber, To: m.ToNumber, Name: m.ContactName,
							Direction: m.Direction, Body: m.Body, Timestamp: m.Timestamp,
						})
					}
				})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.ChatID, "chat", "", "only messages of this chat")
	cmd.Flags().StringVar(&req.Direction, "direction", "", "sent or received")
	cmd.Flags().Int64Var(&req.Before, "before", 0, "only messages older than this unix millisecond timestamp")
	cmd.Flags().IntVar(&req.Limit, "limit", 50, "maximum number of messages")
	return cmd
}

func newSearchCmd(g *globals) *cobra.Command {
	var req api.SearchRequest
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search message bodies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Query = strings.Join(args, " ")
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				resp, err := c.SearchMessages(ctx, req)
				if err != nil {
					return err
				}
				g.print(resp, func() {
					if len(resp.Results) == 0 {
						fmt.Println("No matches.")
						return
					}
					for _, r := range resp.Results {
						m := r.Message
						printMessage(messageLine{
							From: m.FromNumber, To: m.ToNumber, Name: m.ContactName,
							Direction: m.Direction, Body: r.Snippet, Timestamp: m.Timestamp,
						})
					}
				})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.ChatID, "chat", "", "only messages of this chat")
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "maximum number of results")
	return cmd
}

func newTemplatesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage canned replies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				resp, err := c.ListTemplates(ctx)
				if err != nil {
					return err
				}
				g.print(resp, func() {
					if len(resp.Templates) == 0 {
						fmt.Println("No templates.")
						return
					}
					for _, t := range resp.Templates {
						fmt.Printf("%-16s %-10s %4d  %s\n", t.Name, t.Category, t.UsageCount, t.Content)
					}
				})
				return nil
			})
		},
	})

	var category string
	add := &cobra.Command{
		Use:   "add <name> <content>",
		Short: "Create or replace a template",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.TemplateRequest{Name: args[0], Content: strings.Join(args[1:], " "), Category: category}
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				if err := c.SaveTemplate(ctx, req); err != nil {
					return err
				}
				g.print(req, func() { fmt.Printf("Saved template %s\n", req.Name) })
				return nil
			})
		},
	}
	add.Flags().StringVar(&category, "category", "general", "template category")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				deleted, err := c.DeleteTemplate(ctx, args[0])
				if err != nil {
					return err
				}
				g.print(api.DeleteTemplateResponse{Deleted: deleted}, func() {
					if deleted {
						fmt.Printf("Deleted template %s\n", args[0])
					} else {
						fmt.Printf("No template %s\n", args[0])
					}
				})
				return nil
			})
		},
	})
	return cmd
}

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or change live bot settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				resp, err := c.ListConfig(ctx)
				if err != nil {
					return err
				}
				g.print(resp, func() {
					for _, e := range resp.Entries {
						fmt.Printf("%-18s %s\n", e.Key, e.Value)
					}
				})
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.ConfigRequest{Key: args[0], Value: strings.Join(args[1:], " ")}
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				if err := c.SetConfig(ctx, req.Key, req.Value); err != nil {
					return err
				}
				g.print(req, func() { fmt.Printf("%s = %s\n", req.Key, req.Value) })
				return nil
			})
		},
	})
	return cmd
}

func newPairCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "pair",
		Short: "Show the current pairing QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(defaultTimeout, func(ctx context.Context, c *api.Client) error {
				resp, err := c.Status(ctx)
				if err != nil {
					return err
				}
				if g.json {
					outputJSON(map[string]string{"state": resp.State, "pairing_code": resp.PairingCode})
					return nil
				}
				switch {
				case resp.PairingCode != "":
					fmt.Println("Scan with WhatsApp > Linked devices:")
					fmt.Print(renderQR(resp.PairingCode))
				case resp.State == string(status.Ready):
					fmt.Println("Session already paired.")
				default:
					fmt.Printf("No pairing code yet (state: %s). Try again in a few seconds.\n", resp.State)
				}
				return nil
			})
		},
	}
}

func newWatchCmd(g *globals) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream daemon events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.dial()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = c.WatchEvents(ctx, prefix, func(evt bus.Event) error {
				if g.json {
					outputJSON(evt)
					return nil
				}
				fmt.Printf("%s %-22s %v\n", evt.Timestamp.Format("15:04:05"), evt.Kind, evt.Payload)
				return nil
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only events whose kind starts with this prefix")
	return cmd
}
