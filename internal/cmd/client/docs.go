package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// NewDocsCommand constructs the `docs` command group and subcommands.
func NewDocsCommand(baseURL BaseURLFunc) *cobra.Command {
	docsCmd := &cobra.Command{Use: "docs", Short: "Document operations"}

	docsCmd.AddCommand(
		newDocsListCommand(baseURL),
		newDocsGetCommand(baseURL),
		newDocsMetaCommand(baseURL),
		newDocsForgetCommand(baseURL),
	)

	return docsCmd
}

// newDocsListCommand constructs the `docs list` subcommand.
func newDocsListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")

			q := url.Values{}
			if filter != "" {
				q.Set("filter", filter)
			}
			if limit > 0 {
				q.Set("limit", fmt.Sprintf("%d", limit))
			}
			target := baseURL() + "/data/documents"
			if len(q) > 0 {
				target += "?" + q.Encode()
			}
			var resp struct {
				Documents []json.RawMessage `json:"documents"`
				Count     int               `json:"count"`
			}
			if err := getJSON(target, &resp); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, doc := range resp.Documents {
				_ = enc.Encode(doc)
			}
			return nil
		},
	}
	listCmd.Flags().String("filter", "", "CEL filter (server-side)")
	listCmd.Flags().Int("limit", 0, "Stop after N documents (0 = all)")
	return listCmd
}

// newDocsGetCommand constructs the `docs get` subcommand.
func newDocsGetCommand(baseURL BaseURLFunc) *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch one document by id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetUint64("id")
			var doc json.RawMessage
			if err := getJSON(fmt.Sprintf("%s/data/documents/%d", baseURL(), id), &doc); err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(doc)
		},
	}
	getCmd.Flags().Uint64("id", 0, "Document id")
	_ = getCmd.MarkFlagRequired("id")
	return getCmd
}

// newDocsMetaCommand constructs the `docs meta` subcommand.
func newDocsMetaCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "meta",
		Short: "Show aggregate counters and sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var meta json.RawMessage
			if err := getJSON(baseURL()+"/data/meta", &meta); err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(meta)
		},
	}
}

// newDocsForgetCommand constructs the `docs forget` subcommand.
func newDocsForgetCommand(baseURL BaseURLFunc) *cobra.Command {
	forgetCmd := &cobra.Command{
		Use:   "forget",
		Short: "Drop the documents of a terminated session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, _ := cmd.Flags().GetString("session")
			var resp struct {
				Session string `json:"session"`
				Removed int    `json:"removed"`
			}
			if err := doDelete(baseURL()+"/data/scripts/"+url.PathEscape(session), &resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d documents from session %s\n", resp.Removed, resp.Session)
			return nil
		},
	}
	forgetCmd.Flags().String("session", "", "Session id")
	_ = forgetCmd.MarkFlagRequired("session")
	return forgetCmd
}
