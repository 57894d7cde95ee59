package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mmmcli/internal/services"
	"mmmcli/internal/sweep"
)

func (a *app) combinationsCmd() *cobra.Command {
	var (
		jobFile string
		asJSON  bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "combinations",
		Short: "List the parameter combinations a job would train",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&jobFile, "job", "j", "", "job file (YAML)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print combinations as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many combinations (0 prints all)")
	_ = cmd.MarkFlagRequired("job")

	cmd.RunE = a.run("combinations", func(ctx context.Context, out io.Writer) error {
		job, err := services.LoadJob(jobFile)
		if err != nil {
			return err
		}
		sw, err := a.service().Combinations(ctx, job)
		if err != nil {
			return err
		}

		n := sw.Len()
		if limit > 0 && limit < n {
			n = limit
		}
		if asJSON {
			combos := make([]sweep.ParameterCombination, n)
			for i := range n {
				combos[i] = sw.At(i)
			}
			return writeJSON(out, combos)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "# mode=%s frequency=%s total=%d\n", sw.Mode(), sw.Frequency(), sw.Len())
		fmt.Fprintln(tw, "KEY\tCOMBINATION")
		for i := range n {
			c := sw.At(i)
			fmt.Fprintf(tw, "%s\t%s\n", c.Key(), c)
		}
		return tw.Flush()
	})
	return cmd
}
