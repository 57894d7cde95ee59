package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"mmmcli/internal/metrics"
	"mmmcli/internal/services"
)

func (a *app) elasticityCmd() *cobra.Command {
	var (
		runID          string
		transformsFile string
	)

	cmd := &cobra.Command{
		Use:   "elasticity",
		Short: "Recompute elasticities and contributions of a stored run",
		Long: `Elasticity derives elasticities and contribution shares of every record
of a stored run again, without refitting. Column transforms come from
--transforms when given, else from the scope's saved definitions.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&runID, "run", "r", "", "run identifier")
	cmd.Flags().StringVarP(&transformsFile, "transforms", "t", "", "column transform file (YAML)")
	_ = cmd.MarkFlagRequired("run")

	cmd.RunE = a.run("elasticity", func(ctx context.Context, out io.Writer) error {
		var transforms metrics.ColumnTransforms
		if transformsFile != "" {
			var err error
			if transforms, err = services.LoadTransformsFile(transformsFile); err != nil {
				return err
			}
		}

		results, err := a.service().RecomputeElasticities(ctx, runID, transforms)
		if err != nil {
			return err
		}
		return writeJSON(out, results)
	})
	return cmd
}
