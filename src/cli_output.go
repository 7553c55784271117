package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func printPreview(out io.Writer, cfg *OrganizerConfig, preview *Preview) {
	fmt.Fprintf(out, "%s → %s\n\n", cfg.SourceDir, cfg.DestDir)
	if len(preview.Buckets) == 0 {
		fmt.Fprintln(out, "No photos found in range")
		if preview.Skipped > 0 {
			fmt.Fprintf(out, "Skipped: %d\n", preview.Skipped)
		}
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Month", "Folder", "New", "Updated", "Existing", "Size"})
	for _, bp := range preview.Buckets {
		tw.AppendRow(table.Row{
			bp.Bucket.String(),
			bp.Folder,
			bp.Stats.New,
			bp.Stats.Updated,
			bp.Stats.Existing,
			humanize.Bytes(uint64(bp.Stats.Bytes)),
		})
	}
	totals := preview.Totals()
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d files", preview.Files), totals.New, totals.Updated, totals.Existing, humanize.Bytes(uint64(totals.Bytes))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 5, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 6, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	tw.Render()

	if preview.Skipped > 0 {
		fmt.Fprintf(out, "\nSkipped: %d (out of range or unreadable)\n", preview.Skipped)
	}
}

func printResult(out io.Writer, r *Result) {
	fmt.Fprintf(out, "Run %s %s in %s\n", r.RunID, r.Status(), r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  Processed: %d of %d\n", r.Processed, r.Total)
	fmt.Fprintf(out, "  Copied:    %d\n", r.Copied)
	fmt.Fprintf(out, "  Moved:     %d\n", r.Moved)
	fmt.Fprintf(out, "  Skipped:   %d\n", r.Skipped)
	fmt.Fprintf(out, "  Failed:    %d\n", r.Failed)
	for _, f := range r.Failures {
		fmt.Fprintf(out, "    %s: %v\n", f.Path, f.Err)
	}
}
