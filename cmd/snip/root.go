package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/snippet-store/internal/client"
	"github.com/sakif/snippet-store/internal/model"
)

// app holds the state shared between subcommands: the server address and
// the API client built from it in PersistentPreRunE.
type app struct {
	serverURL string
	client    *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "snip",
		Short: "snip is a command-line client for a snippet-store server",
		Long: `snip browses, searches, and manages code snippets on a snippet-store server.

Examples:

  snip register --username ada --email ada@example.com --password secret123
  snip login --email ada@example.com --password secret123
  snip create --title "binary search" --language go --file search.go
  snip list --page 2
  snip search generics
  snip show <id>
  snip delete <id>
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			endpoint := strings.TrimRight(a.serverURL, "/") + "/graphql"
			c, err := client.New(endpoint)
			if err != nil {
				return err
			}
			a.client = c
			return nil
		},
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&a.serverURL, "server", "http://localhost:8080", "server base URL")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newMyCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newCreateCmd(a))
	cmd.AddCommand(newDeleteCmd(a))

	return cmd
}

// printPage renders one merged list view: a header line per snippet plus
// the pagination footer.
func printPage(cmd *cobra.Command, page *model.SnippetPage) {
	if len(page.Snippets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no snippets found")
		return
	}

	for _, s := range page.Snippets {
		owner := ""
		if s.Owner != nil {
			owner = s.Owner.Username
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s  %-40s  %s\n",
			s.ID, s.Language, truncate(s.Title, 40), owner)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nshowing %d of %d", len(page.Snippets), page.TotalCount)
	if page.HasMore {
		fmt.Fprint(cmd.OutOrStdout(), " (more available, use --page)")
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
