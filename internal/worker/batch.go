package worker

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Runner runs the full collection pipeline for one target
type Runner interface {
	Run(ctx context.Context, target model.Target) (*model.FoundationReport, error)
}

// HarvestJob represents one target's pipeline run
type HarvestJob struct {
	Target model.Target
	Runner Runner
}

// Execute executes the harvest job
func (j *HarvestJob) Execute(ctx context.Context) Result {
	report, err := j.Runner.Run(ctx, j.Target)
	return &HarvestResult{
		Target: j.Target,
		Report: report,
		Error:  err,
	}
}

// HarvestResult represents the result of a harvest job
type HarvestResult struct {
	Target model.Target
	Report *model.FoundationReport
	Error  error
}

// GetError returns the error from the harvest result
func (r *HarvestResult) GetError() error {
	return r.Error
}

// BatchProcessor runs many targets concurrently on a worker pool
type BatchProcessor struct {
	runner      Runner
	concurrency int
	progress    func(*HarvestResult)
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// OnProgress registers a callback invoked as each target completes
func (b *BatchProcessor) OnProgress(fn func(*HarvestResult)) {
	b.progress = fn
}

// ProcessTargets runs every target and returns results in input order
func (b *BatchProcessor) ProcessTargets(ctx context.Context, targets []model.Target) []*HarvestResult {
	if len(targets) == 0 {
		return []*HarvestResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	if b.progress != nil {
		pool.OnResult(func(r Result) { b.progress(r.(*HarvestResult)) })
	}
	pool.Start()

	for _, t := range targets {
		pool.Submit(&HarvestJob{Target: t, Runner: b.runner})
	}

	results := pool.Wait()

	out := make([]*HarvestResult, len(results))
	for i, r := range results {
		out[i] = r.(*HarvestResult)
	}
	return out
}

// ProcessFile reads targets from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, defaultTier model.Tier) ([]*HarvestResult, error) {
	targets, err := ReadTargetsFile(filePath, defaultTier)
	if err != nil {
		return nil, err
	}
	return b.ProcessTargets(ctx, targets), nil
}

type targetsDocument struct {
	Targets []model.Target `yaml:"targets"`
}

// ReadTargetsFile reads target descriptors. YAML files (.yaml/.yml) hold either
// a list of descriptors or a {targets: [...]} document; any other file holds one
// primary URL per line, with '#' comments. Targets without a tier get
// defaultTier and targets without a job id get a fresh one. Repeated targets
// are dropped.
func ReadTargetsFile(filePath string, defaultTier model.Tier) ([]model.Target, error) {
	var targets []model.Target
	var err error

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		targets, err = readYAMLTargets(filePath)
	default:
		targets, err = readURLTargets(filePath)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := make([]model.Target, 0, len(targets))
	for _, t := range targets {
		t.PrimaryURL = strings.TrimSpace(t.PrimaryURL)
		if t.PrimaryURL == "" {
			continue
		}
		key := t.PrimaryURL + "|" + strings.Join(t.CompetitorURLs, ",") + "|" + strings.Join(t.Keywords, ",")
		if seen[key] {
			continue
		}
		seen[key] = true

		if t.Tier == "" {
			t.Tier = defaultTier
		}
		if _, err := model.ParseTier(string(t.Tier)); err != nil {
			return nil, eris.Wrapf(err, "batch: target %s", t.PrimaryURL)
		}
		if t.JobID == "" {
			t.JobID = model.NewJobID()
		}
		out = append(out, t)
	}
	return out, nil
}

func readYAMLTargets(filePath string) ([]model.Target, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "batch: read targets file")
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var list []model.Target
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc targetsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "batch: parse targets yaml")
	}
	return doc.Targets, nil
}

func readURLTargets(filePath string) ([]model.Target, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open targets file")
	}
	defer func() { _ = file.Close() }()

	var targets []model.Target
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, model.Target{PrimaryURL: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: scan targets file")
	}
	return targets, nil
}
