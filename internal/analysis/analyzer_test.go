package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"aat-go/internal/config"
	"aat-go/internal/eventlog"
	"aat-go/internal/models"
)

type goldenStats struct {
	Encoding          string `yaml:"encoding"`
	PreambleLines     int    `yaml:"preamble_lines"`
	DroppedLines      int    `yaml:"dropped_lines"`
	SkippedRows       int    `yaml:"skipped_rows"`
	Columns           int    `yaml:"columns"`
	PositionSamples   int    `yaml:"position_samples"`
	StimulusEvents    int    `yaml:"stimulus_events"`
	UnresolvedSamples int    `yaml:"unresolved_samples"`
	Reversals         int    `yaml:"reversals"`
	ZeroDeltaPairs    int    `yaml:"zero_delta_pairs"`
}

type golden struct {
	Stats    goldenStats                  `yaml:"stats"`
	Approach []models.ApproachObservation `yaml:"approach"`
	Speed    []models.SpeedObservation    `yaml:"speed"`
	Warnings []string                     `yaml:"warnings"`
}

func newTestAnalyzer(t *testing.T, instruments *Instruments) *Analyzer {
	t.Helper()
	a, err := New(zap.NewNop(), config.AnalysisConfig{
		MinFields: eventlog.DefaultMinFields,
		Encodings: eventlog.DefaultEncodings,
		Workers:   2,
	}, instruments)
	require.NoError(t, err)
	return a
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestProcessFileGolden(t *testing.T) {
	var want golden
	require.NoError(t, yaml.Unmarshal(readFixture(t, "session.golden.yaml"), &want))

	a := newTestAnalyzer(t, nil)
	res := a.ProcessFile(context.Background(), Upload{Name: "session.log", Data: readFixture(t, "session.log")})

	require.True(t, res.OK(), "unexpected failure: %v", res.Failure)
	assert.Equal(t, want.Stats, goldenStats{
		Encoding:          res.Stats.Encoding,
		PreambleLines:     res.Stats.PreambleLines,
		DroppedLines:      res.Stats.DroppedLines,
		SkippedRows:       res.Stats.SkippedRows,
		Columns:           res.Stats.Columns,
		PositionSamples:   res.Stats.PositionSamples,
		StimulusEvents:    res.Stats.StimulusEvents,
		UnresolvedSamples: res.Stats.UnresolvedSamples,
		Reversals:         res.Stats.Reversals,
		ZeroDeltaPairs:    res.Stats.ZeroDeltaPairs,
	})

	require.Len(t, res.Approach, len(want.Approach))
	for i, w := range want.Approach {
		assert.Equal(t, w.ImageType, res.Approach[i].ImageType, "approach %d", i)
		assert.InDelta(t, w.Distance, res.Approach[i].Distance, 1e-9, "approach %d", i)
	}
	require.Len(t, res.Speed, len(want.Speed))
	for i, w := range want.Speed {
		assert.Equal(t, w.Direction, res.Speed[i].Direction, "speed %d", i)
		assert.Equal(t, w.ImageType, res.Speed[i].ImageType, "speed %d", i)
		assert.InDelta(t, w.Speed, res.Speed[i].Speed, 1e-9, "speed %d", i)
	}

	kinds := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		assert.Equal(t, SeverityWarning, w.Severity)
		assert.Equal(t, "session.log", w.File)
		kinds = append(kinds, w.KindName)
	}
	assert.Equal(t, want.Warnings, kinds)
}

func TestProcessFileFailures(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	utf8Only, err := New(zap.NewNop(), config.AnalysisConfig{
		MinFields: eventlog.DefaultMinFields,
		Encodings: []string{"utf-8"},
		Workers:   1,
	}, nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		analyzer *Analyzer
		data     string
		kind     eventlog.Kind
	}{
		{"undecodable", utf8Only, "Player position,1,0.5,Caf\xe9", eventlog.KindDecode},
		{"no marker", a, "Event Executed,1,LeftImage,Spider\n", eventlog.KindHeaderNotFound},
		{"empty", a, "", eventlog.KindHeaderNotFound},
		{"truncated", a, "Player position,1\nfoo\n", eventlog.KindNoValidData},
		{"header only", a, "Player position,0,0.5\n", eventlog.KindNoValidData},
		{"unparseable", a, "Player position,0,0.5\nPlayer position,\"1,0.5,x\n", eventlog.KindParse},
		{"no detail column", a, "Player position,1,0.5\nPlayer position,2,0.6\n", eventlog.KindMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.analyzer.ProcessFile(context.Background(), Upload{Name: tt.name, Data: []byte(tt.data)})

			require.False(t, res.OK())
			assert.Equal(t, tt.kind, res.Failure.Kind)
			assert.Equal(t, tt.kind.String(), res.Failure.KindName)
			assert.Equal(t, SeverityError, res.Failure.Severity)
			assert.Equal(t, tt.name, res.Failure.File)
			assert.NotNil(t, res.Approach)
			assert.Empty(t, res.Approach)
			assert.Empty(t, res.Speed)
		})
	}
}

func TestProcessFileCanceled(t *testing.T) {
	reg := prometheus.NewRegistry()
	instruments, err := NewInstruments(reg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestAnalyzer(t, instruments).ProcessFile(ctx, Upload{Name: "late.log", Data: []byte("Player position,1,0.5")})

	require.False(t, res.OK())
	assert.Equal(t, eventlog.KindCanceled, res.Failure.Kind)
	assert.Equal(t, "Canceled", res.Failure.KindName)
	assert.Equal(t, 1.0, testutil.ToFloat64(instruments.failures.WithLabelValues("Canceled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(instruments.files.WithLabelValues("failed")))
}

func TestMarkerLineIsNotASample(t *testing.T) {
	data := "pre1\npre2\n" +
		"Player position,0,0.9\n" +
		"Event Executed,1,LeftImage,Spider_01.png\n" +
		"Player position,2,0.2\n" +
		"Player position,3,0.4\n"

	res := newTestAnalyzer(t, nil).ProcessFile(context.Background(), Upload{Name: "marker.log", Data: []byte(data)})

	require.True(t, res.OK(), "unexpected failure: %v", res.Failure)
	assert.Equal(t, 2, res.Stats.PreambleLines)
	assert.Equal(t, 2, res.Stats.PositionSamples)
	assert.Zero(t, res.Stats.UnresolvedSamples)
	require.Len(t, res.Speed, 1)
	assert.InDelta(t, 0.2, res.Speed[0].Speed, 1e-9)
	assert.Empty(t, res.Approach)
}

func TestReconfigure(t *testing.T) {
	a, err := New(zap.NewNop(), config.AnalysisConfig{
		MinFields: eventlog.DefaultMinFields,
		Encodings: []string{"utf-8"},
		Workers:   1,
	}, nil)
	require.NoError(t, err)
	latin := Upload{Name: "session.log", Data: readFixture(t, "session.log")}

	res := a.ProcessFile(context.Background(), latin)
	require.False(t, res.OK())
	assert.Equal(t, eventlog.KindDecode, res.Failure.Kind)

	err = a.Reconfigure(config.AnalysisConfig{MinFields: 3, Encodings: []string{"klingon"}, Workers: 1})
	assert.Error(t, err)
	assert.False(t, a.ProcessFile(context.Background(), latin).OK(), "a bad reload keeps the old settings")

	require.NoError(t, a.Reconfigure(config.AnalysisConfig{
		MinFields: eventlog.DefaultMinFields,
		Encodings: eventlog.DefaultEncodings,
		Workers:   3,
	}))
	res = a.ProcessFile(context.Background(), latin)
	require.True(t, res.OK())
	assert.Equal(t, "latin-1", res.Stats.Encoding)
	assert.Equal(t, 3, a.current().workers)
}

func TestProcessBatch(t *testing.T) {
	good := readFixture(t, "session.log")
	bad := []byte("no marker in here\n")

	tests := []struct {
		name      string
		uploads   []Upload
		outcome   Outcome
		succeeded int
		approach  int
	}{
		{
			name:      "all good",
			uploads:   []Upload{{"a.log", good}, {"b.log", good}},
			outcome:   OutcomeFull,
			succeeded: 2,
			approach:  6,
		},
		{
			name:      "one bad",
			uploads:   []Upload{{"a.log", good}, {"broken.log", bad}, {"c.log", good}},
			outcome:   OutcomePartial,
			succeeded: 2,
			approach:  6,
		},
		{
			name:      "all bad",
			uploads:   []Upload{{"x.log", bad}, {"y.log", []byte{}}},
			outcome:   OutcomeNone,
			succeeded: 0,
			approach:  0,
		},
	}

	a := newTestAnalyzer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := a.ProcessBatch(context.Background(), tt.uploads)

			assert.Equal(t, tt.outcome, batch.Outcome)
			assert.Equal(t, tt.succeeded, batch.Succeeded)
			assert.Equal(t, len(tt.uploads)-tt.succeeded, batch.Failed)
			assert.Len(t, batch.Approach, tt.approach)
			assert.NotNil(t, batch.Speed)

			_, err := uuid.Parse(batch.RunID)
			assert.NoError(t, err)

			require.Len(t, batch.Files, len(tt.uploads))
			for i, up := range tt.uploads {
				assert.Equal(t, up.Name, batch.Files[i].Name, "input order")
			}
		})
	}
}

func TestProcessBatchSummaries(t *testing.T) {
	good := readFixture(t, "session.log")
	batch := newTestAnalyzer(t, nil).ProcessBatch(context.Background(), []Upload{{"a.log", good}, {"b.log", good}})

	require.Len(t, batch.ApproachSummary, 2)
	assert.Equal(t, models.CategoryNeutral, batch.ApproachSummary[0].ImageType)
	assert.Equal(t, 4, batch.ApproachSummary[0].Count)
	assert.Equal(t, models.CategorySpider, batch.ApproachSummary[1].ImageType)
	assert.Equal(t, 2, batch.ApproachSummary[1].Count)

	// Each file carries its own two warnings.
	diags := batch.Diagnostics()
	assert.Len(t, diags, 4)
}

func TestInstrumentsCountFiles(t *testing.T) {
	reg := prometheus.NewRegistry()
	instruments, err := NewInstruments(reg)
	require.NoError(t, err)

	a := newTestAnalyzer(t, instruments)
	a.ProcessBatch(context.Background(), []Upload{
		{"a.log", readFixture(t, "session.log")},
		{"b.log", []byte("nothing")},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(instruments.files.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(instruments.files.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(instruments.failures.WithLabelValues("HeaderNotFound")))
	assert.Equal(t, 3.0, testutil.ToFloat64(instruments.observations.WithLabelValues("approach")))
	assert.Equal(t, 6.0, testutil.ToFloat64(instruments.observations.WithLabelValues("speed")))

	_, err = NewInstruments(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeNone, outcomeOf(0, 0))
	assert.Equal(t, OutcomeNone, outcomeOf(0, 3))
	assert.Equal(t, OutcomePartial, outcomeOf(1, 3))
	assert.Equal(t, OutcomeFull, outcomeOf(3, 3))
}
