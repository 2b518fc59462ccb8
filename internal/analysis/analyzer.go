package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aat-go/internal/config"
	"aat-go/internal/eventlog"
	"aat-go/internal/metrics"
	"aat-go/internal/models"
	"aat-go/internal/summary"
)

// Analyzer runs uploaded logs through the pipeline. It holds no per-file
// state and is safe for concurrent use.
type Analyzer struct {
	log         *zap.Logger
	instruments *Instruments

	mu       sync.RWMutex
	settings *settings
}

// settings is an immutable snapshot of the tunables. A batch keeps the
// snapshot it started with even when the configuration is reloaded.
type settings struct {
	decoder   *eventlog.Decoder
	minFields int
	workers   int
}

func newSettings(conf config.AnalysisConfig) (*settings, error) {
	decoder, err := eventlog.NewDecoder(conf.Encodings)
	if err != nil {
		return nil, err
	}
	workers := conf.Workers
	if workers < 1 {
		workers = 1
	}
	return &settings{decoder: decoder, minFields: conf.MinFields, workers: workers}, nil
}

// New builds an analyzer from the analysis settings. instruments may be nil.
func New(log *zap.Logger, conf config.AnalysisConfig, instruments *Instruments) (*Analyzer, error) {
	st, err := newSettings(conf)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		log:         log.Named("analysis"),
		instruments: instruments,
		settings:    st,
	}, nil
}

// Reconfigure swaps in new analysis settings. Batches already running finish
// with the old ones. On error the current settings stay in place.
func (a *Analyzer) Reconfigure(conf config.AnalysisConfig) error {
	st, err := newSettings(conf)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.settings = st
	a.mu.Unlock()
	a.log.Info("Analysis settings reloaded",
		zap.Strings("encodings", st.decoder.Encodings()),
		zap.Int("min_fields", st.minFields),
		zap.Int("workers", st.workers))
	return nil
}

func (a *Analyzer) current() *settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// ProcessFile takes one log from bytes to the approach and speed tables. A
// failing stage ends the file with a diagnostic; it never affects other files.
func (a *Analyzer) ProcessFile(ctx context.Context, up Upload) *FileResult {
	return a.processFile(ctx, a.current(), up)
}

func (a *Analyzer) processFile(ctx context.Context, st *settings, up Upload) *FileResult {
	start := time.Now()
	res := &FileResult{
		Name:     up.Name,
		Approach: []models.ApproachObservation{},
		Speed:    []models.SpeedObservation{},
		Warnings: []Diagnostic{},
	}

	if err := ctx.Err(); err != nil {
		d := newDiagnostic(up.Name, eventlog.KindCanceled, SeverityError, "%v", err)
		res.Failure = &d
	} else if err := a.run(st, up, res); err != nil {
		d := newDiagnostic(up.Name, eventlog.KindOf(err), SeverityError, "%v", err)
		res.Failure = &d
	}

	elapsed := time.Since(start)
	a.instruments.observe(res, elapsed.Seconds())
	a.logResult(res, elapsed)
	return res
}

func (a *Analyzer) run(st *settings, up Upload, res *FileResult) error {
	decoded, err := st.decoder.Decode(up.Name, up.Data)
	if err != nil {
		return err
	}
	res.Stats.Encoding = decoded.Encoding

	headerAt, err := eventlog.LocateHeader(decoded.Lines)
	if err != nil {
		return err
	}
	res.Stats.PreambleLines = headerAt

	header := decoded.Lines[headerAt]
	lines, dropped, err := eventlog.FilterLines(decoded.Lines[headerAt+1:], st.minFields)
	res.Stats.DroppedLines = dropped
	if err != nil {
		return err
	}

	table, err := eventlog.ParseWithHeader(header, lines)
	if err != nil {
		return err
	}
	res.Stats.SkippedRows = table.SkippedRows
	res.Stats.Columns = len(table.Columns)

	streams, err := eventlog.Extract(table)
	if err != nil {
		return err
	}
	res.Stats.BadTimestamps = streams.BadTimestamps
	res.Stats.BadPositions = streams.BadPositions
	res.Stats.PositionSamples = len(streams.Positions)
	res.Stats.StimulusEvents = len(streams.Stimuli)

	joined := metrics.JoinAsOf(streams.Positions, streams.Stimuli)
	obs := metrics.Analyze(joined)
	res.Approach = obs.Approach
	res.Speed = obs.Speed
	res.Stats.UnresolvedSamples = metrics.CountUnresolved(joined)
	res.Stats.Reversals = obs.Reversals
	res.Stats.ZeroDeltaPairs = obs.ZeroDeltaPairs

	collectWarnings(res, obs, st.minFields)
	return nil
}

func collectWarnings(res *FileResult, obs *metrics.Observations, minFields int) {
	warn := func(kind eventlog.Kind, format string, args ...any) {
		res.Warnings = append(res.Warnings, newDiagnostic(res.Name, kind, SeverityWarning, format, args...))
	}
	st := res.Stats
	if st.DroppedLines > 0 {
		warn(eventlog.KindDroppedLines, "dropped %d lines with fewer than %d fields", st.DroppedLines, minFields)
	}
	if st.SkippedRows > 0 {
		warn(eventlog.KindParse, "skipped %d malformed records", st.SkippedRows)
	}
	if st.BadTimestamps > 0 {
		warn(eventlog.KindParse, "skipped %d rows with a non-numeric timestamp", st.BadTimestamps)
	}
	if st.BadPositions > 0 {
		warn(eventlog.KindParse, "skipped %d position rows with a non-numeric position", st.BadPositions)
	}
	if st.StimulusEvents == 0 {
		warn(eventlog.KindJoinUnresolved, "no stimulus events, nothing can be tagged")
	} else if st.UnresolvedSamples > 0 {
		warn(eventlog.KindJoinUnresolved, "%d samples precede the first stimulus; excluded %d approach and %d speed observations",
			st.UnresolvedSamples, obs.UnresolvedApproach, obs.UnresolvedSpeed)
	}
}

func (a *Analyzer) logResult(res *FileResult, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("file", res.Name),
		zap.Duration("elapsed", elapsed),
		zap.String("encoding", res.Stats.Encoding),
	}
	if res.Failure != nil {
		a.log.Warn("Log file rejected", append(fields,
			zap.String("kind", res.Failure.KindName),
			zap.String("reason", res.Failure.Message))...)
		return
	}
	a.log.Info("Log file analyzed", append(fields,
		zap.Int("approach", len(res.Approach)),
		zap.Int("speed", len(res.Speed)),
		zap.Int("warnings", len(res.Warnings)))...)
	for _, w := range res.Warnings {
		a.log.Debug("Log file warning", zap.String("file", w.File), zap.String("kind", w.KindName), zap.String("detail", w.Message))
	}
}

// BatchResult holds the per-file results in input order and the combined
// tables of every file that succeeded.
type BatchResult struct {
	RunID           string                       `json:"runId"`
	Outcome         Outcome                      `json:"outcome"`
	Succeeded       int                          `json:"succeeded"`
	Failed          int                          `json:"failed"`
	Files           []*FileResult                `json:"files"`
	Approach        []models.ApproachObservation `json:"approach"`
	Speed           []models.SpeedObservation    `json:"speed"`
	ApproachSummary []summary.GroupStats         `json:"approachSummary"`
	SpeedSummary    []summary.GroupStats         `json:"speedSummary"`
}

// Diagnostics lists every file's diagnostics in input order.
func (b *BatchResult) Diagnostics() []Diagnostic {
	var out []Diagnostic
	for _, f := range b.Files {
		out = append(out, f.Diagnostics()...)
	}
	return out
}

// ProcessBatch analyzes every upload on a bounded set of goroutines. Output
// order follows input order regardless of completion order.
func (a *Analyzer) ProcessBatch(ctx context.Context, uploads []Upload) *BatchResult {
	results := make([]*FileResult, len(uploads))
	st := a.current()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(st.workers)
	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			results[i] = a.processFile(gctx, st, up)
			return nil
		})
	}
	// Workers report failures in their results, Wait never sees an error.
	_ = g.Wait()

	batch := &BatchResult{
		RunID:    uuid.NewString(),
		Files:    results,
		Approach: []models.ApproachObservation{},
		Speed:    []models.SpeedObservation{},
	}
	for _, r := range results {
		if !r.OK() {
			batch.Failed++
			continue
		}
		batch.Succeeded++
		batch.Approach = append(batch.Approach, r.Approach...)
		batch.Speed = append(batch.Speed, r.Speed...)
	}
	batch.Outcome = outcomeOf(batch.Succeeded, len(uploads))
	batch.ApproachSummary = summary.DescribeApproach(batch.Approach)
	batch.SpeedSummary = summary.DescribeSpeed(batch.Speed)

	a.log.Info("Batch analyzed",
		zap.String("run", batch.RunID),
		zap.String("outcome", string(batch.Outcome)),
		zap.Int("succeeded", batch.Succeeded),
		zap.Int("failed", batch.Failed))
	return batch
}
