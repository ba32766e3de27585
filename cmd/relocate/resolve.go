package main

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/polzovatel/relocate/internal/config"
	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/resolver"
	"github.com/polzovatel/relocate/internal/snapshot"
)

type resolveOutput struct {
	Found      bool               `json:"found"`
	Locator    *string            `json:"locator"`
	Method     resolver.Method    `json:"method,omitempty"`
	Matched    []string           `json:"matched,omitempty"`
	Candidates int                `json:"candidates,omitempty"`
	Source     *snapshot.Snapshot `json:"source,omitempty"`
}

func newResolveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve --old FILE --new FILE --locator PATH",
		Short: "Print the locator of the old element's counterpart in the new document",
		Long: `Resolve evaluates the locator against the old snapshot, captures the element it
addresses, and finds the matching element in the new snapshot: exactly when the
path still resolves, otherwise by comparing text, href and class among elements
of the same tag. It prints the new locator, or null when there is no match.

The locator may also be any XPath expression; its first match in the old
document is used.`,
		Args: cobra.NoArgs,
		RunE: a.runResolve,
	}
	cmd.Flags().String("old", "", "old HTML snapshot")
	cmd.Flags().String("new", "", "new HTML snapshot")
	cmd.Flags().String("locator", "", "locator of the element in the old snapshot")
	cmd.Flags().Bool("json", false, "print a JSON result")
	addMatchingFlags(cmd, a.cfg)
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	_ = cmd.MarkFlagRequired("locator")
	return cmd
}

func (a *app) runResolve(cmd *cobra.Command, _ []string) error {
	oldPath, _ := cmd.Flags().GetString("old")
	newPath, _ := cmd.Flags().GetString("new")
	expr, _ := cmd.Flags().GetString("locator")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := matchingConfig(cmd, a.cfg)
	if err != nil {
		return err
	}
	opts, err := cfg.ResolverOptions()
	if err != nil {
		return err
	}

	oldDoc, err := document.Load(oldPath)
	if err != nil {
		return err
	}
	newDoc, err := document.Load(newPath)
	if err != nil {
		return err
	}
	logger := component("resolve")
	loc, err := resolver.SourceLocator(oldDoc, expr)
	if errors.Is(err, resolver.ErrSourceNotFound) {
		logger.Warn().Err(err).Msg("nothing to relocate")
		return printResult(cmd.OutOrStdout(), resolveOutput{}, asJSON)
	}
	if err != nil {
		return err
	}

	res, err := resolver.New(opts, component("resolver")).Relocate(oldDoc, newDoc, loc)
	switch {
	case errors.Is(err, resolver.ErrSourceNotFound):
		logger.Warn().Str("locator", loc.String()).Str("doc", oldPath).Msg("locator does not resolve in the old document")
		return printResult(cmd.OutOrStdout(), resolveOutput{}, asJSON)
	case errors.Is(err, resolver.ErrNotFound):
		logger.Info().Str("locator", loc.String()).Msg("no matching element in the new document")
		return printResult(cmd.OutOrStdout(), resolveOutput{}, asJSON)
	case err != nil:
		return err
	}

	if res.Candidates > 1 {
		logger.Warn().Int("candidates", res.Candidates).Str("policy", string(opts.Policy)).Msg("several elements matched")
	}
	path := res.Locator.String()
	return printResult(cmd.OutOrStdout(), resolveOutput{
		Found:      true,
		Locator:    &path,
		Method:     res.Method,
		Matched:    res.Matched,
		Candidates: res.Candidates,
		Source:     &res.Snapshot,
	}, asJSON)
}

func printResult(w io.Writer, out resolveOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if !out.Found {
		_, err := color.New(color.FgYellow).Fprintln(w, "null")
		return err
	}
	_, err := color.New(color.FgGreen).Fprintln(w, *out.Locator)
	return err
}

func addMatchingFlags(cmd *cobra.Command, cfg config.Config) {
	cmd.Flags().String("policy", cfg.Policy, "candidate selection: first (document order) or best (most predicates)")
	cmd.Flags().Bool("verify-exact", cfg.VerifyExact, "reject an exact path hit that matches no predicate")
	cmd.Flags().StringSlice("predicates", cfg.Predicates, "similarity predicates: text, href, or any attribute name")
}

func matchingConfig(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	var err error
	if cmd.Flags().Changed("policy") {
		if cfg.Policy, err = cmd.Flags().GetString("policy"); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("verify-exact") {
		if cfg.VerifyExact, err = cmd.Flags().GetBool("verify-exact"); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("predicates") {
		preds, err := cmd.Flags().GetStringSlice("predicates")
		if err != nil {
			return cfg, err
		}
		cfg.Predicates = nil
		for _, p := range preds {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				cfg.Predicates = append(cfg.Predicates, p)
			}
		}
	}
	return cfg, nil
}
