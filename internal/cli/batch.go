package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/reviewharvest/internal/foundation"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/ppiankov/reviewharvest/internal/pipeline"
	"github.com/ppiankov/reviewharvest/internal/worker"
)

var (
	batchOpts   collectFlags
	concurrency int
	outputDir   string
	batchTier   string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Collect reviews for many targets in parallel",
	Long: `Batch runs one collection per target descriptor:
- YAML files (.yaml/.yml) hold a list of targets, or a {targets: [...]} document
- Any other file holds one store URL per line ('#' starts a comment)
- Targets run concurrently on a worker pool
- Each report is written to <output-dir>/<job_id>.json

Example targets.yaml:
  - primary_url: https://groundluxe.com
    competitor_urls: [https://rival-one.com]
    keywords: [grounding sheets]
    tier: premium
  - primary_url: https://another-store.com

Example:
  reviewharvest batch targets.yaml
  reviewharvest batch urls.txt --concurrency 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of targets collected in parallel")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for reports (default: output.dir)")
	batchCmd.Flags().StringVar(&batchTier, "tier", "", "tier for targets that do not name one (default from config)")
	addRunFlags(batchCmd, &batchOpts)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batchOpts.apply(cfg)
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}

	defaultTier := cfg.Collection.Tier
	if batchTier != "" {
		if defaultTier, err = model.ParseTier(batchTier); err != nil {
			return err
		}
	}

	targets, err := worker.ReadTargetsFile(file, defaultTier)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchOpts.timeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  reviewharvest batch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Targets:      %d\n", len(targets))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchOpts.timeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return eris.Wrap(err, "batch: create output directory")
	}

	p, err := pipeline.New(cfg, pipeline.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", cerr)
		}
	}()

	started := time.Now()
	processor := worker.NewBatchProcessor(p, concurrency)
	processor.OnProgress(func(r *worker.HarvestResult) {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Target.PrimaryURL, r.Error)
			return
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %d reviews (%s)\n",
			r.Target.PrimaryURL, r.Report.TotalReviewCount, r.Report.DataQuality.ConfidenceLevel)
	})
	results := processor.ProcessTargets(ctx, targets)

	successCount, failureCount, lowCount := 0, 0, 0
	var writeErr error
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			continue
		}
		path := reportPath(outputDir, result.Report.JobID)
		if err := foundation.WriteJSON(path, result.Report); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Target.PrimaryURL, err)
			failureCount++
			writeErr = err
			continue
		}
		successCount++
		if !result.Report.DataQuality.HasMinimumReviews {
			lowCount++
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d targets\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:    %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Below %d:   %d\n", model.MinimumReviews, lowCount)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Elapsed:    %v\n", time.Since(started).Round(time.Second))
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if writeErr != nil {
		return eris.Wrap(writeErr, "batch: write reports")
	}
	return nil
}
