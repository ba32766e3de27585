package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polzovatel/relocate/internal/batch"
	"github.com/polzovatel/relocate/internal/document"
	"github.com/polzovatel/relocate/internal/resolver"
)

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch JOB.yaml",
		Short: "Run every relocation listed in a YAML job file",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runBatch,
	}
	addMatchingFlags(cmd, a.cfg)
	cmd.Flags().Int("jobs", a.cfg.Concurrency, "cases resolved in parallel")
	return cmd
}

func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	job, err := batch.LoadJob(args[0])
	if err != nil {
		return err
	}
	cfg, err := matchingConfig(cmd, job.Apply(a.cfg))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Concurrency, _ = cmd.Flags().GetInt("jobs")
	}
	opts, err := cfg.ResolverOptions()
	if err != nil {
		return err
	}

	runner := batch.NewRunner(
		resolver.New(opts, component("resolver")),
		document.Load,
		cfg.Concurrency,
		component("batch"),
	)
	outcomes, err := runner.Run(cmd.Context(), job.Cases)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	found := 0
	for _, o := range outcomes {
		result := "null"
		if o.Found() {
			result = o.Locator
			found++
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", o.Case.Name, result); err != nil {
			return err
		}
	}
	logger := component("batch")
	logger.Info().Int("cases", len(outcomes)).Int("found", found).Msg("batch finished")
	return nil
}
