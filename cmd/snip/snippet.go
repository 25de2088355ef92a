package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/snippet-store/internal/client"
	"github.com/sakif/snippet-store/internal/model"
)

func newListCmd(a *app) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List public snippets",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.client.AllSnippets(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			printPage(cmd, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "items per page (max 50)")

	return cmd
}

func newMyCmd(a *app) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "my",
		Short: "List your own snippets, private ones included",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.client.MySnippets(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			printPage(cmd, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "items per page (max 50)")

	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search public snippets by title, description, code, or language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			result, err := a.client.SearchSnippets(cmd.Context(), query, page, limit)
			if err != nil {
				return err
			}
			printPage(cmd, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "items per page (max 50)")

	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one snippet in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.SnippetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s == nil {
				return fmt.Errorf("snippet %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "title:      %s\n", s.Title)
			fmt.Fprintf(out, "language:   %s\n", s.Language)
			fmt.Fprintf(out, "visibility: %s\n", s.Visibility)
			if s.Owner != nil {
				fmt.Fprintf(out, "owner:      %s\n", s.Owner.Username)
			}
			fmt.Fprintf(out, "created:    %s\n", s.CreatedAt.Format("2006-01-02 15:04"))
			if s.Description != "" {
				fmt.Fprintf(out, "\n%s\n", s.Description)
			}
			fmt.Fprintf(out, "\n%s\n", s.Code)
			return nil
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var title, language, code, file, description, visibility string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a snippet from --code or a --file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code == "" && file == "" {
				return fmt.Errorf("one of --code or --file is required")
			}
			if code == "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading %s: %w", file, err)
				}
				code = string(b)
			}

			s, err := a.client.CreateSnippet(cmd.Context(), client.CreateSnippetInput{
				Title:       title,
				Language:    language,
				Code:        code,
				Description: description,
				Visibility:  visibility,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created snippet %s\n", s.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "snippet title")
	cmd.Flags().StringVar(&language, "language", "", "language ("+strings.Join(model.Languages, ", ")+")")
	cmd.Flags().StringVar(&code, "code", "", "snippet body, inline")
	cmd.Flags().StringVar(&file, "file", "", "read the snippet body from a file")
	cmd.Flags().StringVar(&description, "description", "", "optional description")
	cmd.Flags().StringVar(&visibility, "visibility", string(model.VisibilityPublic), "public or private")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("language")

	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your snippets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteSnippet(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted snippet %s\n", args[0])
			return nil
		},
	}
}
