package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/snapshot"
)

func newLocateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate --file FILE --query XPATH",
		Short: "Print the positional locator of every element matching an XPath query",
		Args:  cobra.NoArgs,
		RunE:  a.runLocate,
	}
	cmd.Flags().String("file", "", "HTML snapshot")
	cmd.Flags().String("query", "", "XPath expression, e.g. //form//a")
	cmd.Flags().Bool("json", false, "print element snapshots as JSON")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func (a *app) runLocate(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	query, _ := cmd.Flags().GetString("query")
	asJSON, _ := cmd.Flags().GetBool("json")

	doc, err := document.Load(path)
	if err != nil {
		return err
	}
	nodes, err := doc.Query(query)
	if err != nil {
		return err
	}
	logger := component("locate")
	logger.Debug().Str("query", query).Int("matches", len(nodes)).Msg("query evaluated")

	snaps := make([]snapshot.Snapshot, 0, len(nodes))
	for _, n := range nodes {
		s, err := snapshot.Capture(n)
		if err != nil {
			return err
		}
		snaps = append(snaps, s)
	}

	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snaps)
	}
	for _, s := range snaps {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", s.Locator, document.Truncate(s.Text, 50)); err != nil {
			return err
		}
	}
	return nil
}
