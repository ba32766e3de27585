package main

import (
	"github.com/spf13/cobra"

	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/report"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE [FILE]",
		Short: "Log the form, div and link structure of one or two snapshots",
		Long: `Analyze logs every form with its nested div tree, search forms, the first links
of the page and repeated div[2]/div[1]/div[1]/a link groups. Given two files, it
also pairs the first links of their search forms.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: a.runAnalyze,
	}
	cmd.Flags().Int("max-depth", a.cfg.MaxDepth, "levels of nested divs to expand below a form (0 = all)")
	cmd.Flags().Int("links", a.cfg.LinkLimit, "number of document links to list (0 = all)")
	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, args []string) error {
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	links, _ := cmd.Flags().GetInt("links")
	opts := report.Options{MaxDepth: maxDepth, LinkLimit: links}

	logger := component("analyze")
	reporter := report.NewLogReporter(logger)

	reports := make([]report.Report, 0, len(args))
	for _, path := range args {
		doc, err := document.Load(path)
		if err != nil {
			return err
		}
		rep, err := report.Analyze(doc, opts)
		if err != nil {
			return err
		}
		reporter.Report(rep)
		reports = append(reports, rep)
	}

	if len(reports) == 2 {
		oldLink, newLink, ok := report.PairSearchForms(reports[0], reports[1])
		if !ok {
			logger.Info().Msg("no search form links to pair")
			return nil
		}
		logger.Info().
			Str("old_text", oldLink.Text).
			Str("old_locator", oldLink.Locator).
			Str("new_text", newLink.Text).
			Str("new_locator", newLink.Locator).
			Msg("search form pair")
	}
	return nil
}
