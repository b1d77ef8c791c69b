package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
	"github.com/TobiSchelling/CollectionsReport/internal/config"
	"github.com/TobiSchelling/CollectionsReport/internal/database"
	"github.com/TobiSchelling/CollectionsReport/internal/ingest"
	"github.com/TobiSchelling/CollectionsReport/internal/report"
	"github.com/TobiSchelling/CollectionsReport/internal/summary"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID      string
	ExportPath string
	Steps      []StepResult
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Options override output settings for a single run.
type Options struct {
	Format    string
	ExportDir string
}

// Pipeline orchestrates the load, classify, summarize, and export steps.
type Pipeline struct {
	cfg        *config.Config
	db         *database.DB
	reader     *ingest.Reader
	classifier *activity.Classifier
	summarizer *summary.Summarizer
	builder    *report.Builder
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		db:         db,
		reader:     ingest.NewReader(cfg.Input.DateLayout, cfg.Debug()),
		classifier: activity.NewClassifier(cfg.Classification.DialerActor),
		summarizer: summary.NewSummarizer(cfg.Classification.PromiseOutcome),
		builder:    report.NewBuilder(cfg.Output.MissingValue),
	}
}

// Run executes the full pipeline and records it in the run ledger. Staging is
// fully reloaded on every run.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Result {
	r := &Result{}

	runID, err := p.db.StartRun()
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Start", Err: fmt.Errorf("starting run: %w", err)})
		return r
	}
	r.RunID = runID
	run := database.Run{ID: runID}
	defer p.finish(r, &run)

	// Step 1: Load
	step := p.runLoad(runID, &run)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 2: Classify
	step = p.runClassify()
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 3: Summarize
	step = p.runSummarize(ctx, runID, &run)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 4: Export
	path, step := p.runExport(opts)
	r.Steps = append(r.Steps, step)
	if step.Err == nil {
		r.ExportPath = path
		run.ExportPath = &path
	}

	return r
}

// DryRun reads the source files and reports what a run would load, without
// touching the staging database.
func (p *Pipeline) DryRun(opts Options) *Result {
	r := &Result{}

	accounts, err := p.reader.ReadAccountsFile(p.cfg.Input.AccountsFile)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Err: err})
		return r
	}
	events, err := p.reader.ReadEventsFile(p.cfg.Input.EventsFile)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Load",
		Summary: fmt.Sprintf("[dry-run] %d accounts and %d events would be staged, %d rows rejected",
			len(accounts.Accounts), len(events.Events), len(accounts.Rejections)+len(events.Rejections)),
	})

	classified := p.classifier.ClassifyAll(events.Events)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Classify",
		Summary: fmt.Sprintf("[dry-run] %s", describeClassification(classified)),
	})

	roster := make(map[string]struct{}, len(accounts.Accounts))
	for _, a := range accounts.Accounts {
		roster[a.AccountID] = struct{}{}
	}
	orphans := 0
	for _, ev := range events.Events {
		if _, ok := roster[ev.AccountID]; !ok {
			orphans++
		}
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("[dry-run] %d account summaries, %d orphaned events", len(roster), orphans),
	})

	format, dir := p.output(opts)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("[dry-run] Would write a %s report to %s", format, dir),
	})

	return r
}

// ErrLastRunFailed is returned by Export when the most recent run did not
// complete, so the staged data has no matching summaries.
var ErrLastRunFailed = errors.New("last run failed")

// Export writes the currently stored summaries without recomputing them. It
// refuses while the most recent run is marked failed.
func (p *Pipeline) Export(opts Options) (string, error) {
	latest, err := p.db.GetLatestRun()
	if err != nil {
		return "", fmt.Errorf("reading latest run: %w", err)
	}
	if latest != nil && latest.Status == database.RunFailed {
		return "", fmt.Errorf("%w (run %s); rerun before exporting", ErrLastRunFailed, database.ShortRunID(latest.ID))
	}
	return p.export(opts)
}

func (p *Pipeline) export(opts Options) (string, error) {
	format, dir := p.output(opts)
	records, err := p.Records()
	if err != nil {
		return "", err
	}
	return report.Export(dir, format, records)
}

// Records returns the rendered report for the stored summaries.
func (p *Pipeline) Records() ([]report.Record, error) {
	rows, err := p.db.GetReportRows()
	if err != nil {
		return nil, fmt.Errorf("reading report rows: %w", err)
	}
	return p.builder.Build(rows), nil
}

func (p *Pipeline) runLoad(runID string, run *database.Run) StepResult {
	log.Println("Step 1/4: Loading source files...")
	accounts, err := p.reader.ReadAccountsFile(p.cfg.Input.AccountsFile)
	if err != nil {
		return StepResult{Name: "Load", Err: err}
	}
	events, err := p.reader.ReadEventsFile(p.cfg.Input.EventsFile)
	if err != nil {
		return StepResult{Name: "Load", Err: err}
	}

	if err := p.db.ReloadStaging(accounts.Accounts, events.Events); err != nil {
		return StepResult{Name: "Load", Err: fmt.Errorf("staging source rows: %w", err)}
	}

	rejections := slices.Concat(accounts.Rejections, events.Rejections)
	if err := p.db.InsertRejections(runID, rejections); err != nil {
		return StepResult{Name: "Load", Err: fmt.Errorf("recording rejections: %w", err)}
	}

	run.AccountCount = len(accounts.Accounts)
	run.EventCount = len(events.Events)
	run.RejectedCount = len(rejections)
	return StepResult{
		Name:    "Load",
		Summary: fmt.Sprintf("Staged %d accounts and %d events, rejected %d rows", run.AccountCount, run.EventCount, run.RejectedCount),
	}
}

func (p *Pipeline) runClassify() StepResult {
	log.Println("Step 2/4: Classifying contact events...")
	stored, err := p.db.GetEvents()
	if err != nil {
		return StepResult{Name: "Classify", Err: fmt.Errorf("reading staged events: %w", err)}
	}

	raw := make([]activity.ContactEvent, len(stored))
	for i, ev := range stored {
		raw[i] = ev.ContactEvent
	}
	classified := p.classifier.ClassifyAll(raw)
	if err := p.db.SetClassifications(classified); err != nil {
		return StepResult{Name: "Classify", Err: err}
	}

	return StepResult{
		Name:    "Classify",
		Summary: "Classified " + describeClassification(classified),
	}
}

func (p *Pipeline) runSummarize(ctx context.Context, runID string, run *database.Run) StepResult {
	log.Println("Step 3/4: Summarizing accounts...")
	roster, err := p.db.GetAccountIDs()
	if err != nil {
		return StepResult{Name: "Summarize", Err: fmt.Errorf("reading roster: %w", err)}
	}
	events, err := p.db.GetClassifiedEvents()
	if err != nil {
		return StepResult{Name: "Summarize", Err: fmt.Errorf("reading classified events: %w", err)}
	}

	batch, err := p.summarizer.SummarizeRoster(ctx, roster, events, p.cfg.Summarize.Workers)
	if err != nil {
		return StepResult{Name: "Summarize", Err: err}
	}
	if err := p.db.ReplaceSummaries(runID, batch.Summaries); err != nil {
		return StepResult{Name: "Summarize", Err: fmt.Errorf("storing summaries: %w", err)}
	}
	if p.cfg.Debug() {
		for _, ev := range batch.Orphans {
			log.Printf("orphaned event %d for unknown account %s", ev.Seq, ev.AccountID)
		}
	}

	run.SummaryCount = len(batch.Summaries)
	run.OrphanCount = len(batch.Orphans)
	return StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("Summarized %d accounts (%d without activity), %d orphaned events", run.SummaryCount, countIdle(batch.Summaries), run.OrphanCount),
	}
}

func (p *Pipeline) runExport(opts Options) (string, StepResult) {
	log.Println("Step 4/4: Exporting report...")
	path, err := p.export(opts)
	if err != nil {
		return "", StepResult{Name: "Export", Err: err}
	}
	return path, StepResult{
		Name:    "Export",
		Summary: "Report written to " + path,
	}
}

func (p *Pipeline) finish(r *Result, run *database.Run) {
	run.Status = database.RunCompleted
	if r.Failed() {
		run.Status = database.RunFailed
	}
	md := RunMarkdown(r, run)
	run.SummaryMarkdown = &md
	if err := p.db.FinishRun(*run); err != nil {
		log.Printf("Error recording run %s: %v", run.ID, err)
	}
}

func (p *Pipeline) output(opts Options) (format, dir string) {
	format, dir = p.cfg.Output.Format, p.cfg.Output.ExportDir
	if opts.Format != "" {
		format = opts.Format
	}
	if opts.ExportDir != "" {
		dir = opts.ExportDir
	}
	return format, dir
}

func countIdle(summaries []summary.Summary) int {
	n := 0
	for _, s := range summaries {
		if s.EventCount == 0 {
			n++
		}
	}
	return n
}

func describeClassification(events []activity.ClassifiedEvent) string {
	var unregistered, unclassified int
	for _, ev := range events {
		if ev.NormalizedChannel == activity.ChannelNotRegistered {
			unregistered++
		}
		if ev.NormalizedContactType == activity.ContactUnclassified {
			unclassified++
		}
	}
	parts := []string{fmt.Sprintf("%d events", len(events))}
	if unregistered > 0 {
		parts = append(parts, fmt.Sprintf("%d with unregistered channel", unregistered))
	}
	if unclassified > 0 {
		parts = append(parts, fmt.Sprintf("%d with unclassified contact type", unclassified))
	}
	return strings.Join(parts, ", ")
}
