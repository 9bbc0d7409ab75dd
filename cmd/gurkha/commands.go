package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dayvoid97/gurkha-go/api"
	"github.com/dayvoid97/gurkha-go/realtime"
)

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gurkha",
		Short:         "Command line client for Financial Gurkha",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newLoginCommand(a))
	cmd.AddCommand(newLogoutCommand(a))
	cmd.AddCommand(newWhoamiCommand(a))
	cmd.AddCommand(newProfileCommand(a))
	cmd.AddCommand(newExploreCommand(a))
	cmd.AddCommand(newWinsCommand(a))
	cmd.AddCommand(newWatchCommand(a))
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the credential pair locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.api.Auth.Login(commandContext(cmd), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored credential pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.Auth.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.api.Profile.Get(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> (id %s)\n", user.Username, user.Email, user.ID)
			return nil
		},
	}
}

func newExploreCommand(a *app) *cobra.Command {
	var country, sector string
	var limit int

	cmd := &cobra.Command{
		Use:   "explore <query>",
		Short: "Search companies and wins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.api.Explore.Search(commandContext(cmd), api.SearchQuery{
				Query:   args[0],
				Country: country,
				Sector:  sector,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			for _, card := range result.Cards {
				fmt.Printf("card  %-24s %s (%s)\n", card.Company, card.Ticker, card.ID)
			}
			for _, win := range result.Wins {
				fmt.Printf("win   %-24s by %s (%s)\n", truncate(win.Title, 24), win.Username, win.ID)
			}
			if len(result.Cards) == 0 && len(result.Wins) == 0 {
				fmt.Println("No results")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "Filter by country code")
	cmd.Flags().StringVar(&sector, "sector", "", "Filter by sector")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results per kind")
	return cmd
}

func newWinsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wins",
		Short: "List, post and celebrate wins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newWinsListCommand(a))
	cmd.AddCommand(newWinsPostCommand(a))
	cmd.AddCommand(newWinsCelebrateCommand(a))
	return cmd
}

func newWinsListCommand(a *app) *cobra.Command {
	var username string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent wins",
		RunE: func(cmd *cobra.Command, args []string) error {
			wins, err := a.api.Wins.List(commandContext(cmd), api.ListWinsOptions{
				Username: username,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			for _, win := range wins {
				fmt.Printf("%s  %-40s by %-16s %d celebrations\n",
					win.ID, truncate(win.Title, 40), win.Username, win.Celebrations)
			}
			if len(wins) == 0 {
				fmt.Println("No wins")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "Only wins by this username")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum wins to list")
	return cmd
}

func newWinsPostCommand(a *app) *cobra.Command {
	var title, body string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a new win",
		RunE: func(cmd *cobra.Command, args []string) error {
			win, err := a.api.Wins.Create(commandContext(cmd), api.WinDraft{Title: title, Body: body})
			if err != nil {
				return err
			}
			fmt.Printf("Posted win %s\n", win.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Win title")
	cmd.Flags().StringVar(&body, "body", "", "Win body")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newWinsCelebrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "celebrate <win-id>",
		Short: "Celebrate a win",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := a.api.Wins.Celebrate(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Celebrated, %d celebrations now\n", count)
			return nil
		},
	}
}

// newWatchCommand keeps a realtime channel open and prints inbound messages
// until interrupted. Each run uses a fresh connection identifier; the user
// identifier comes from the signed-in profile.
func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream incoming messages over the realtime channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(a.config.GetAppName())

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			user, err := a.api.Profile.Get(ctx)
			if err != nil {
				return err
			}
			connectionID := uuid.NewString()

			opts := realtime.Options{
				HeartbeatInterval: a.config.GetHeartbeatInterval(),
				OnMessage: func(msg realtime.Message) {
					fmt.Printf("[%s] %s: %s\n", msg.SentAt.Format("15:04:05"), msg.SenderID, msg.Text)
				},
				OnDeliveryReceipt: func(messageID string) {
					log.Debug().Str("message_id", messageID).Msg("delivery receipt")
				},
			}

			dial := func(ctx context.Context) (*realtime.Channel, error) {
				return realtime.Dial(ctx, a.config.GetWSBaseURL(), connectionID, user.ID, opts)
			}

			fmt.Printf("Watching as %s (connection %s), Ctrl-C to stop\n", user.Username, connectionID)
			err = realtime.NewReconnector(dial).Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-1]) + "…"
}
