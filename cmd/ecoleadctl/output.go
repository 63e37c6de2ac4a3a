package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func printMigrationTable(w io.Writer, rows []MigrationStatus) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
	for _, r := range rows {
		applied := "no"
		if r.AppliedAt != nil {
			applied = r.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Version, r.Name, applied)
	}
	_ = tw.Flush()
}
