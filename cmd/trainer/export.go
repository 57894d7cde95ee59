package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mmmcli/internal/exporter"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		runID  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored run's records as a CSV or Excel table",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&runID, "run", "r", "", "run identifier")
	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatCSV), "output format: csv or xlsx")
	_ = cmd.MarkFlagRequired("run")

	cmd.RunE = a.run("export", func(ctx context.Context, out io.Writer) error {
		f, err := exporter.ParseFormat(format)
		if err != nil {
			return err
		}
		run, err := a.service().LoadRun(ctx, runID)
		if err != nil {
			return err
		}

		path, err := exporter.NewRecordExporter(a.paths, a.logger).Export(run, f)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, path)
		return err
	})
	return cmd
}
