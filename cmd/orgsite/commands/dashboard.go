package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"orgsite-client/internal/dashboard"
	"orgsite-client/internal/domain"
)

var (
	errNotDeleted    = errors.New("item was not deleted")
	errBookingFailed = errors.New("booking was not submitted")
)

func newDashboardCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show a page of the site",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "admin",
			Short: "Administrator overview: counts of every collection",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				admin := a.admin()
				if err := admin.Init(cmd.Context()); err != nil {
					return err
				}
				stats := admin.Stats()
				fmt.Fprintln(a.out, titleStyle.Render("Admin dashboard"))
				printField(a.out, "Members", stats.Members)
				printField(a.out, "Programs", stats.Programs)
				printField(a.out, "Services", stats.Services)
				printField(a.out, "Events", len(admin.Items(domain.Events)))
				printField(a.out, "Posts", stats.Posts)
				printField(a.out, "Updated", admin.LastUpdated().Format("15:04:05"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "member",
			Short: "Member welcome page",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				member := dashboard.NewMember(a.auth)
				if err := member.Init(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(a.out, titleStyle.Render("Welcome, "+member.DisplayName()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "home",
			Short: "Public landing page: programs and services",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				content := dashboard.NewHome(a.data, a.auth, a.toasts, a.dialogs).Load(cmd.Context())
				fmt.Fprintln(a.out, titleStyle.Render("Programs"))
				for _, p := range content.Programs {
					fmt.Fprintf(a.out, "  %s  %s\n", labelStyle.Render(p.ID()), p.Text("name"))
				}
				fmt.Fprintln(a.out, titleStyle.Render("Services"))
				for _, s := range content.Services {
					fmt.Fprintf(a.out, "  %s  %s\n", labelStyle.Render(s.ID()), s.Text("name"))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "news",
			Short: "News posts (requires login)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				posts, res := dashboard.NewNews(a.data).Load(cmd.Context())
				if err := res.Err(); err != nil {
					return err
				}
				for _, p := range posts {
					fmt.Fprintln(a.out, titleStyle.Render(p.Text("title")))
					if body := p.Text("content"); body != "" {
						fmt.Fprintln(a.out, body)
					}
					fmt.Fprintln(a.out)
				}
				return nil
			},
		},
	)
	return cmd
}

func newBookCommand(a *app) *cobra.Command {
	var date, notes string

	cmd := &cobra.Command{
		Use:   "book <service-id>",
		Short: "Request a booking for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			home := dashboard.NewHome(a.data, a.auth, a.toasts, a.dialogs)
			// Enroll looks the service up in the cache.
			home.Load(ctx)
			if err := home.Enroll(ctx, args[0]); err != nil {
				return err
			}
			if !home.SubmitBooking(ctx, map[string]any{"date": date, "notes": notes}) {
				return errBookingFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Preferred date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "Anything we should know")
	return cmd
}
