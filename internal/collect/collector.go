// Package collect drives the source adapters for each sub-source of a target,
// falling through API, DOM and browser adapters until one yields records.
package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/reviewharvest/internal/extract/adapters"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tunes pagination and parallelism
type Options struct {
	MaxPages       int           // Page ceiling per adapter attempt
	PageDelay      time.Duration // Pause between pages of one adapter
	AttemptTimeout time.Duration // Bound on each adapter call
	Concurrency    int           // Sub-sources collected in parallel
}

// OptionsFromConfig maps the collection config section to collector options
func OptionsFromConfig(cfg model.CollectionConfig) Options {
	return Options{
		MaxPages:       cfg.MaxPages,
		PageDelay:      cfg.PageDelay,
		AttemptTimeout: cfg.AttemptTimeout,
		Concurrency:    cfg.TargetConcurrency,
	}
}

// Collector runs the tiered collection for sub-sources
type Collector struct {
	registry *adapters.Registry
	quota    int
	opts     Options
}

// NewCollector creates a collector. A negative quota is a programming error.
func NewCollector(registry *adapters.Registry, quota int, opts Options) *Collector {
	if quota < 0 {
		panic(fmt.Sprintf("collect: negative quota %d", quota))
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Collector{registry: registry, quota: quota, opts: opts}
}

// Quota returns the per-sub-source record cap
func (c *Collector) Quota() int {
	return c.quota
}

// Collect runs the adapters supporting sub in class order. The first adapter
// that contributes at least one record wins and no further adapter is tried.
// Adapter failures are recorded as attempts; a malformed site URL sets Err.
func (c *Collector) Collect(ctx context.Context, sub model.SubSource) *model.Collection {
	log := zap.L().With(zap.String("sub_source", sub.Name))

	if sub.IsSite() {
		if _, err := model.ValidateURL(sub.URL); err != nil {
			log.Warn("invalid target url", zap.String("url", sub.URL), zap.Error(err))
			col := NewContext(sub, c.quota).Finalize("", 0)
			col.Err = err.Error()
			return col
		}
	}

	cctx := NewContext(sub, c.quota)
	if c.quota == 0 {
		return cctx.Finalize("", 0)
	}

	for _, a := range c.registry.For(sub) {
		if ctx.Err() != nil {
			break
		}

		attempt := c.run(ctx, cctx, sub, a)
		cctx.Record(attempt)

		log.Info("adapter attempt",
			zap.String("adapter", attempt.Adapter),
			zap.String("outcome", string(attempt.Outcome)),
			zap.Int("pages", attempt.Pages),
			zap.Int("records", attempt.Records),
			zap.String("reason", attempt.Reason),
		)

		if attempt.Outcome == model.OutcomeSuccess {
			col := cctx.Finalize(a.Method(), a.Class())
			log.Info("collection complete",
				zap.String("method", string(col.Method)),
				zap.Int("records", len(col.Records)),
				zap.Int("discovered", col.Discovered),
				zap.Bool("tier_limit_applied", col.TierLimitApplied),
			)
			return col
		}
	}

	log.Warn("no adapter yielded records")
	return cctx.Finalize("", 0)
}

// run pages through one adapter until a short page, the quota, the page
// ceiling or an adapter Done signal
func (c *Collector) run(ctx context.Context, cctx *Context, sub model.SubSource, a adapters.Adapter) model.Attempt {
	attempt := model.Attempt{Adapter: a.Name(), Method: a.Method(), Class: a.Class()}

	before := cctx.Discovered()
	cursor := ""
	var firstOutcome model.Outcome
	var reason string

	for page := 1; page <= c.opts.MaxPages; page++ {
		if page > 1 {
			if err := sleep(ctx, c.opts.PageDelay); err != nil {
				reason = err.Error()
				break
			}
		}

		res := c.fetch(ctx, a, adapters.Request{
			URL:            sub.URL,
			Keywords:       sub.Keywords,
			Page:           page,
			Cursor:         cursor,
			QuotaRemaining: cctx.Remaining(),
		})
		attempt.Pages++
		attempt.Records += len(res.Records)
		if page == 1 {
			firstOutcome = res.Outcome
		}

		if res.Outcome == model.OutcomeError {
			reason = res.Reason
			break
		}
		if len(res.Records) == 0 {
			if page == 1 {
				reason = res.Reason
			}
			break
		}

		cctx.Add(res.Records, a.Method())

		if cctx.Full() || res.Done || res.PageSize <= 0 || res.Short() {
			break
		}
		cursor = res.Cursor
	}

	switch {
	case cctx.Discovered() > before:
		attempt.Outcome = model.OutcomeSuccess
		if reason != "" {
			attempt.Reason = reason
		}
	case firstOutcome == model.OutcomeError:
		attempt.Outcome = model.OutcomeError
		attempt.Reason = reason
	default:
		attempt.Outcome = model.OutcomeEmpty
		attempt.Reason = reason
		if attempt.Reason == "" {
			attempt.Reason = "no new records"
		}
	}
	return attempt
}

// fetch bounds one adapter call by the attempt timeout and converts panics
// into error results
func (c *Collector) fetch(ctx context.Context, a adapters.Adapter, req adapters.Request) (res adapters.Result) {
	if c.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.AttemptTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("adapter panicked", zap.String("adapter", a.Name()), zap.Any("panic", r))
			res = adapters.Failure(eris.Errorf("%s: panic: %v", a.Name(), r))
		}
	}()
	return a.Fetch(ctx, req)
}

// CollectAll collects every sub-source, in parallel up to the configured
// concurrency. Results keep input order.
func (c *Collector) CollectAll(ctx context.Context, subs []model.SubSource) []*model.Collection {
	results := make([]*model.Collection, len(subs))

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			results[i] = c.Collect(ctx, sub)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
