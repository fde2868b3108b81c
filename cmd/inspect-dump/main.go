// Debug program that reads back the raw and foundation dumps of a job and
// prints what each adapter did for every sub-source.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/reviewharvest/internal/foundation"
)

func main() {
	dir := flag.String("dir", "debug", "debug dump directory")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect-dump [-dir debug] <job_id>")
		os.Exit(2)
	}
	jobID := flag.Arg(0)

	report, cols, err := foundation.LoadDump(*dir, jobID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== %s (%s, %s) ===\n\n", report.JobID, report.SourceURL, report.Tier)

	for _, col := range cols {
		target := col.SubSource.URL
		if target == "" {
			target = strings.Join(col.SubSource.Keywords, ", ")
		}
		fmt.Printf("%s: %s\n", col.SubSource.Name, target)
		fmt.Println(strings.Repeat("-", 60))
		if col.Err != "" {
			fmt.Printf("  skipped: %s\n\n", col.Err)
			continue
		}
		for _, a := range col.Attempts {
			line := fmt.Sprintf("  %-22s %-8s pages=%d records=%d", a.Method, a.Outcome, a.Pages, a.Records)
			if a.Reason != "" {
				line += "  (" + a.Reason + ")"
			}
			fmt.Println(line)
		}
		kept := fmt.Sprintf("%d", len(col.Records))
		if col.TierLimitApplied {
			kept = fmt.Sprintf("%d of %d, tier limit", len(col.Records), col.Discovered)
		}
		fmt.Printf("  kept: %s via %s\n\n", kept, orNone(string(col.Method)))
	}

	dq := report.DataQuality
	fmt.Printf("Total reviews: %d\n", report.TotalReviewCount)
	fmt.Printf("Confidence:    %s\n", dq.ConfidenceLevel)
	for _, w := range dq.Warnings {
		fmt.Printf("  ! %s\n", w)
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
