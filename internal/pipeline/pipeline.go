// Package pipeline runs one target end to end: collection, profiling,
// quality assessment, normalization and the optional brief.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/reviewharvest/internal/collect"
	"github.com/ppiankov/reviewharvest/internal/extract/adapters"
	"github.com/ppiankov/reviewharvest/internal/fetch"
	"github.com/ppiankov/reviewharvest/internal/foundation"
	"github.com/ppiankov/reviewharvest/internal/llm"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/ppiankov/reviewharvest/internal/profile"
	"github.com/ppiankov/reviewharvest/internal/quality"
	"github.com/ppiankov/reviewharvest/internal/social"
)

// Profiler describes a site's company and catalog
type Profiler interface {
	Profile(ctx context.Context, siteURL string) (*model.SiteProfile, error)
}

// Options overrides parts of the default stack
type Options struct {
	// Registry replaces the adapters built from config. When set, profiling
	// only happens if Profiler is set too.
	Registry *adapters.Registry
	Profiler Profiler
	Briefer  *llm.Briefer // Replaces the briefer built from config
}

// Pipeline orchestrates the complete collection process
type Pipeline struct {
	config     *model.Config
	registry   *adapters.Registry
	profiler   Profiler // nil skips profiling
	assessor   *quality.Assessor
	normalizer *foundation.Normalizer
	briefer    *llm.Briefer // nil when disabled
	collectOpt collect.Options
	closers    []func() error
}

// New creates a pipeline for cfg
func New(cfg *model.Config, opts Options) (*Pipeline, error) {
	p := &Pipeline{
		config:     cfg,
		registry:   opts.Registry,
		profiler:   opts.Profiler,
		assessor:   quality.NewAssessor(quality.ThresholdsFromConfig(cfg.Quality)),
		normalizer: foundation.NewNormalizer(),
		briefer:    opts.Briefer,
		collectOpt: collect.OptionsFromConfig(cfg.Collection),
	}

	var api *fetch.APIClient
	if p.registry == nil {
		fetcher, err := fetch.NewFetcher(fetch.OptionsFromConfig(cfg))
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create fetcher")
		}
		api = fetch.NewAPIClient(fetcher)

		deps := adapters.Deps{
			Fetcher:      fetcher,
			API:          api,
			YouTubeQuota: social.NewQuotaLedger(cfg.Adapters.YouTube.DailyQuota),
		}
		if cfg.Adapters.Browser.Enabled {
			launcher := adapters.NewPlaywrightLauncher(cfg.Adapters.Browser, cfg.HTTP.UserAgent, cfg.Collection.AttemptTimeout)
			deps.Browser = launcher
			p.closers = append(p.closers, launcher.Close)
		}
		p.registry = adapters.Build(cfg, deps)
		if p.profiler == nil {
			p.profiler = profile.NewProfiler(fetcher, api)
		}
	}

	if p.briefer == nil && cfg.LLM.Enabled {
		var poster llm.JSONPoster
		if api != nil {
			poster = api
		}
		briefer, err := llm.NewBriefer(llm.ConfigFromModel(cfg.LLM), poster)
		if err != nil {
			// A broken brief setup never blocks collection
			zap.L().Warn("llm brief disabled", zap.Error(err))
		} else {
			p.briefer = briefer
		}
	}

	return p, nil
}

// Close releases the browser, if one was started
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("pipeline: close: %v", errs)
	}
	return nil
}

// Registry returns the adapters the pipeline collects with
func (p *Pipeline) Registry() *adapters.Registry {
	return p.registry
}

// Run collects and normalizes one target. The report is returned even when
// every source failed; only a malformed primary URL or an unknown tier is
// an error.
func (p *Pipeline) Run(ctx context.Context, target model.Target) (*model.FoundationReport, error) {
	started := time.Now().UTC()

	// 1. Validate input
	if _, err := model.ValidateURL(target.PrimaryURL); err != nil {
		return nil, err
	}
	if target.Tier == "" {
		target.Tier = p.config.Collection.Tier
	}
	tier, err := model.ParseTier(string(target.Tier))
	if err != nil {
		return nil, err
	}
	target.Tier = tier
	if target.JobID == "" {
		target.JobID = model.NewJobID()
	}

	log := zap.L().With(zap.String("job_id", target.JobID))
	log.Info("collection started",
		zap.String("url", target.PrimaryURL),
		zap.Int("competitors", len(target.CompetitorURLs)),
		zap.Strings("keywords", target.Keywords),
		zap.String("tier", string(tier)),
		zap.Int("quota", tier.Limit()),
	)

	// 2. Collect every sub-source
	subs := target.SubSources(p.socialChannels()...)
	collector := collect.NewCollector(p.registry, tier.Limit(), p.collectOpt)
	cols := collector.CollectAll(ctx, subs)

	// 3. Profile the sites
	notes := p.profileSites(ctx, cols)

	// 4. Assess quality
	dq := p.assessor.Assess(quality.Input{
		Collections: cols,
		Expected:    p.expectations(target),
	})

	// 5. Build the foundation report
	report := p.normalizer.Build(foundation.Input{
		Target:      target,
		Collections: cols,
		Quality:     dq,
		StartedAt:   started,
		Notes:       notes,
	})

	// 6. Brief, after assessment so it can never change data_quality
	if p.briefer.IsEnabled() {
		brief, err := p.briefer.Brief(ctx, report)
		if err != nil {
			log.Warn("llm brief failed", zap.Error(err))
			report.Metadata.ProcessingNotes = append(report.Metadata.ProcessingNotes, "LLM brief failed: "+err.Error())
		} else {
			report.Brief = brief
		}
	}

	// 7. Debug dump
	if p.config.Output.Debug {
		if err := foundation.Dump(p.config.Output.DebugDir, report, cols); err != nil {
			log.Warn("debug dump failed", zap.Error(err))
		} else {
			log.Debug("debug dump written", zap.String("dir", p.config.Output.DebugDir))
		}
	}

	log.Info("collection finished",
		zap.Int("reviews", report.TotalReviewCount),
		zap.String("confidence", string(dq.ConfidenceLevel)),
		zap.Int("warnings", len(dq.Warnings)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

func (p *Pipeline) socialChannels() []model.Method {
	var channels []model.Method
	for _, m := range []model.Method{model.MethodReddit, model.MethodYouTube} {
		if p.registry.Has(m) {
			channels = append(channels, m)
		}
	}
	return channels
}

func (p *Pipeline) expectations(target model.Target) quality.Expectations {
	keywords := len(target.Keywords) > 0
	return quality.Expectations{
		StructuredAPI: p.registry.HasClass(model.ClassAPI),
		Competitors:   len(target.CompetitorURLs) > 0,
		Reddit:        keywords && p.registry.Has(model.MethodReddit),
		YouTube:       keywords && p.registry.Has(model.MethodYouTube),
	}
}

// profileSites attaches a profile to each valid site collection. Failures
// become processing notes.
func (p *Pipeline) profileSites(ctx context.Context, cols []*model.Collection) []string {
	if p.profiler == nil {
		return nil
	}
	var notes []string
	for _, col := range cols {
		if col == nil || !col.SubSource.IsSite() || col.Err != "" {
			continue
		}
		prof, err := p.profiler.Profile(ctx, col.SubSource.URL)
		if err != nil {
			zap.L().Debug("profile failed", zap.String("sub_source", col.SubSource.Name), zap.Error(err))
			notes = append(notes, fmt.Sprintf("%s profile unavailable: %v", col.SubSource.Name, err))
			continue
		}
		col.Profile = prof
	}
	return notes
}
