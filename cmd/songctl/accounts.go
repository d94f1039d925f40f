package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/campus-radio/songdesk/internal/bootstrap"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage admin and control accounts",
}

var accountsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default admin and control accounts when missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := app.Auth.EnsureDefaults(cmd.Context(), bootstrap.DefaultAccounts(app.Config))
		if err != nil {
			return err
		}
		if len(created) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "all default accounts already exist")
			return nil
		}
		for _, u := range created {
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", u)
		}
		return nil
	},
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := app.Auth.Accounts(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tROLE\tCREATED")
		for _, a := range accounts {
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Username, a.Role, a.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var accountsPasswdCmd = &cobra.Command{
	Use:   "passwd [username] [password]",
	Short: "Replace an account's password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Auth.SetPassword(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
		return nil
	},
}
