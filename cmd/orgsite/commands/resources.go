package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"orgsite-client/internal/api"
	"orgsite-client/internal/dashboard"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/service"
)

const kindHelp = "users, programs, services, events or blog"

// collection returns the cache for cached kinds and the plain endpoints for users.
func (a *app) collection(kind domain.ResourceKind) dashboard.Collection {
	if cache, err := a.data.Cache(kind); err == nil {
		return cache
	}
	return dashboard.Uncached(a.client.Resource(kind))
}

func (a *app) admin() *dashboard.Admin {
	return dashboard.NewAdmin(a.auth, dashboard.AdminCollections(a.data, a.client), a.toasts, a.dialogs)
}

func parseKind(s string) (domain.ResourceKind, error) {
	kind, err := domain.ParseResourceKind(s)
	if err != nil {
		return "", fmt.Errorf("%w (want %s)", err, kindHelp)
	}
	return kind, nil
}

func newHealthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.client.Health(cmd.Context()) {
				return fmt.Errorf("backend at %s is not healthy", a.client.BaseURL())
			}
			fmt.Fprintf(a.out, "%s is up\n", a.client.BaseURL())
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List the records of a collection (" + kindHelp + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			res := a.collection(kind).Load(cmd.Context(), refresh)
			if err := res.Err(); err != nil {
				return err
			}
			return printRecords(a.out, res.Records())
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the cache")
	return cmd
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			return printResult(a, a.client.Resource(kind).Get(cmd.Context(), args[1]))
		},
	}
}

func newCreateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "create <kind> key=value...",
		Short:   "Create a record",
		Example: "  orgsite create programs name=\"Youth Leadership\" seats=20",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return save(cmd, a, args[0], "", args[1:])
		},
	}
}

func newUpdateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <kind> <id> key=value...",
		Short: "Update fields of a record",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return save(cmd, a, args[0], args[1], args[2:])
		},
	}
}

func save(cmd *cobra.Command, a *app, kindArg, id string, fieldArgs []string) error {
	kind, err := parseKind(kindArg)
	if err != nil {
		return err
	}
	fields, err := service.ParseFields(fieldArgs)
	if err != nil {
		return err
	}
	// The admin page reports the outcome as a toast.
	res := a.admin().Save(cmd.Context(), kind, id, fields)
	if err := res.Err(); err != nil {
		return err
	}
	return printResult(a, res)
}

func newDeleteCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a record after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			a.prompt.setAssumeYes(yes)
			if !a.admin().Delete(cmd.Context(), kind, args[1]) {
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				return errNotDeleted
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newUploadCommand(a *app) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "upload <path> <file> [key=value...]",
		Short: "Upload a file as multipart form data",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := service.ParseFields(args[2:])
			if err != nil {
				return err
			}
			form := make(map[string]string, len(extra))
			for k, v := range extra {
				form[k] = fmt.Sprint(v)
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			return printResult(a, a.client.Upload(cmd.Context(), args[0], f, filepath.Base(args[1]), field, form))
		},
	}

	cmd.Flags().StringVar(&field, "field", "file", "Form field holding the file")
	return cmd
}

// printResult prints the record a call returned, if any.
func printResult(a *app, res api.Result) error {
	if err := res.Err(); err != nil {
		return err
	}
	if len(res.Data) == 0 {
		return nil
	}
	rec, err := res.Record()
	if err != nil {
		fmt.Fprintln(a.out, string(res.Data))
		return nil
	}
	return printRecord(a.out, rec)
}
