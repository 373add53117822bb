// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ManuGH/citesnet/internal/store"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dataset counts and the last ingest run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), cmd.OutOrStdout(), root)
		},
	}
}

func runStats(ctx context.Context, out io.Writer, root *rootOptions) error {
	cfg, _, err := root.load()
	if err != nil {
		return err
	}
	st, err := openStoreReadOnly(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.Database.Path, err)
	}
	defer func() { _ = st.Close() }()

	sum, err := st.Summary(ctx)
	if err != nil {
		return err
	}
	run, err := st.LastIngestRun(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.AppendBulk([][]string{
		{"Database", cfg.Database.Path},
		{"Records", humanize.Comma(sum.Records)},
		{"Taxa", humanize.Comma(sum.Taxa)},
		{"Exporters", humanize.Comma(sum.Exporters)},
		{"Importers", humanize.Comma(sum.Importers)},
	})
	if run.FinishedAt.IsZero() {
		table.Append([]string{"Last ingest", "never"})
	} else {
		table.AppendBulk([][]string{
			{"Last ingest", fmt.Sprintf("%s (%s)", run.FinishedAt.Local().Format(time.DateTime), humanize.Time(run.FinishedAt))},
			{"Ingest duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()},
			{"Files", fmt.Sprint(run.Files)},
			{"Rows skipped", humanize.Comma(run.Skipped)},
			{"Countries", fmt.Sprint(run.Countries)},
			{"Vernacular names", fmt.Sprint(run.Vernaculars)},
		})
	}
	table.Render()
	return nil
}
