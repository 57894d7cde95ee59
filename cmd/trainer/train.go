package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mmmcli/internal/infrastructure"
	"mmmcli/internal/services"
	"mmmcli/internal/sweep"
	"mmmcli/internal/training"
)

// runReport is what train prints on stdout.
type runReport struct {
	RunID        string             `json:"run_id"`
	Scope        string             `json:"scope,omitempty"`
	Mode         sweep.Mode         `json:"mode"`
	Frequency    sweep.Frequency    `json:"frequency"`
	Combinations int                `json:"combinations"`
	Duration     string             `json:"duration"`
	Summary      training.Summary   `json:"summary"`
	Failures     []training.Failure `json:"failures,omitempty"`
}

func newRunReport(run *training.Run) runReport {
	return runReport{
		RunID:        run.ID,
		Scope:        run.Scope,
		Mode:         run.Mode,
		Frequency:    run.Frequency,
		Combinations: run.Combinations,
		Duration:     run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
		Summary:      run.Summary,
		Failures:     run.Failures,
	}
}

func (a *app) trainCmd() *cobra.Command {
	var (
		jobFile string
		runID   string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run the parameter sweep described by a job file",
		Long: `Train loads the dataset named by the job, expands the transformation
parameter sweep and fits every requested model for every combination.
Records are stored under the runs directory; a JSON summary is printed.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&jobFile, "job", "j", "", "job file (YAML)")
	cmd.Flags().StringVar(&runID, "run-id", "", "identifier for the run (default: generated)")
	_ = cmd.MarkFlagRequired("job")

	cmd.RunE = a.run("train", func(ctx context.Context, out io.Writer) error {
		job, err := services.LoadJob(jobFile)
		if err != nil {
			return err
		}
		if runID != "" {
			job.RunID = runID
		}

		run, err := a.service().Train(ctx, job)
		if err != nil {
			return err
		}

		infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
			"run_id":  run.ID,
			"records": run.Summary.Records,
		})
		a.logger.InfoContext(ctx, "Training finished",
			slog.String("run_id", run.ID),
			slog.Int("records", run.Summary.Records),
			slog.Int("failures", run.Summary.Failures))
		return writeJSON(out, newRunReport(run))
	})
	return cmd
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
