package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/reviewharvest/internal/foundation"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/ppiankov/reviewharvest/internal/pipeline"
)

// collectFlags holds the collect and batch command overrides
type collectFlags struct {
	competitors []string
	tier        string
	keywords    string
	jobID       string
	out         string
	debug       bool
	noBrowser   bool
	noSocial    bool
	noCache     bool
	llm         bool
	timeout     time.Duration
}

var collectOpts collectFlags

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect <url>",
	Short: "Collect and normalize reviews for one store",
	Long: `Collect reviews for a store URL and write the foundation report as JSON.

Competitor stores are collected with the same quota as the customer store.
Keywords enable the Reddit and YouTube channels.

A run that finds few or no reviews still succeeds; the report's
data_quality section says how far the sample can be trusted.

Example:
  reviewharvest collect https://groundluxe.com
  reviewharvest collect https://groundluxe.com --tier premium \
      --competitor https://rival-one.com --competitor https://rival-two.com
  reviewharvest collect https://groundluxe.com --keywords "grounding sheets" --llm`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	f := collectCmd.Flags()
	f.StringArrayVar(&collectOpts.competitors, "competitor", nil, "competitor store URL (repeatable)")
	f.StringVar(&collectOpts.tier, "tier", "", "collection tier: basic, premium, enterprise, pro (default from config)")
	f.StringVar(&collectOpts.keywords, "keywords", "", "comma-separated keywords for social channels")
	f.StringVar(&collectOpts.jobID, "job-id", "", "job identifier (generated when empty)")
	f.StringVar(&collectOpts.out, "out", "", "output JSON path (default: <output.dir>/<job>.json)")
	addRunFlags(collectCmd, &collectOpts)
}

// addRunFlags registers the flags shared by collect and batch
func addRunFlags(cmd *cobra.Command, opts *collectFlags) {
	f := cmd.Flags()
	f.BoolVar(&opts.debug, "debug", false, "write raw and foundation debug dumps")
	f.BoolVar(&opts.noBrowser, "no-browser", false, "disable the headless browser adapter")
	f.BoolVar(&opts.noSocial, "no-social", false, "disable the Reddit and YouTube channels")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	f.BoolVar(&opts.llm, "llm", false, "attach an LLM-written brief")
	f.DurationVar(&opts.timeout, "timeout", 15*time.Minute, "overall timeout")
}

// apply layers the flags over the loaded configuration
func (f collectFlags) apply(cfg *model.Config) {
	if f.debug {
		cfg.Output.Debug = true
	}
	if f.noBrowser {
		cfg.Adapters.Browser.Enabled = false
	}
	if f.noSocial {
		cfg.Adapters.Reddit.Enabled = false
		cfg.Adapters.YouTube.Enabled = false
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if f.llm {
		cfg.LLM.Enabled = true
	}
}

// target builds the run descriptor for url
func (f collectFlags) target(url string) model.Target {
	return model.Target{
		JobID:          f.jobID,
		PrimaryURL:     strings.TrimSpace(url),
		CompetitorURLs: f.competitors,
		Tier:           model.Tier(f.tier),
		Keywords:       splitKeywords(f.keywords),
	}
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	collectOpts.apply(cfg)
	target := collectOpts.target(args[0])

	// Input errors surface before any network work
	if _, err := model.ValidateURL(target.PrimaryURL); err != nil {
		return err
	}
	if target.Tier != "" {
		if _, err := model.ParseTier(string(target.Tier)); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), collectOpts.timeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  reviewharvest collect\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Store:        %s\n", target.PrimaryURL)
	for i, c := range target.CompetitorURLs {
		fmt.Fprintf(os.Stderr, "  Competitor %d: %s\n", i+1, c)
	}
	if len(target.Keywords) > 0 {
		fmt.Fprintf(os.Stderr, "  Keywords:     %s\n", strings.Join(target.Keywords, ", "))
	}
	if cfg.LLM.Enabled {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.New(cfg, pipeline.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", cerr)
		}
	}()

	report, err := p.Run(ctx, target)
	if err != nil {
		return err
	}

	outPath := collectOpts.out
	if outPath == "" {
		outPath = reportPath(cfg.Output.Dir, report.JobID)
	}
	if err := foundation.WriteJSON(outPath, report); err != nil {
		return eris.Wrap(err, "collect: write report")
	}

	printSummary(os.Stderr, report)
	fmt.Fprintf(os.Stderr, "  Report:     %s\n\n", outPath)
	return nil
}

// reportPath is where a run's report lands when no explicit path is given
func reportPath(dir, jobID string) string {
	return filepath.Join(dir, jobID+".json")
}

// printSummary writes the run summary and every warning verbatim
func printSummary(w io.Writer, report *model.FoundationReport) {
	dq := report.DataQuality

	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Collection Complete\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Job:        %s (%s)\n", report.JobID, report.Tier)
	fmt.Fprintf(w, "  Reviews:    %d (customer %d, competitors %d, social %d)\n",
		report.TotalReviewCount, report.CustomerReviewCount, report.CompetitorReviewCount, report.SocialReviewCount)
	fmt.Fprintf(w, "  Sources:    %d/%d succeeded\n", dq.TargetsSucceeded, dq.TargetsAttempted)
	fmt.Fprintf(w, "  Confidence: %s\n", dq.ConfidenceLevel)
	if report.Analysis.AverageRating != nil {
		fmt.Fprintf(w, "  Rating:     %.2f/5\n", *report.Analysis.AverageRating)
	}
	if dq.TierLimitApplied {
		fmt.Fprintf(w, "  Tier limit: applied (%d reviews available)\n", dq.AvailableReviewsEstimated)
	}
	if report.Brief != nil {
		fmt.Fprintf(w, "  Brief:      %s/%s, %d citations\n", report.Brief.Provider, report.Brief.Model, len(report.Brief.CitedIDs))
	}

	if len(dq.Warnings) > 0 {
		fmt.Fprintf(w, "\n  Warnings:\n")
		for _, warning := range dq.Warnings {
			fmt.Fprintf(w, "  ⚠️  %s\n", warning)
		}
	}
	if report.Brief != nil {
		for _, warning := range report.Brief.Warnings {
			fmt.Fprintf(w, "  ⚠️  %s\n", warning)
		}
	}
	fmt.Fprintf(w, "\n")
}
