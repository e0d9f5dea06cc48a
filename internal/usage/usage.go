// Package usage accumulates token counts per model.
package usage

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/Cyclone1070/lumen/internal/provider/model"
)

// usageSink persists per-call counts. Implemented by store/sqlite.
type usageSink interface {
	AddUsage(modelID string, inputTokens, outputTokens int) error
}

// Totals is the running count for one model.
type Totals struct {
	ModelID      string
	InputTokens  int
	OutputTokens int
	Calls        int
}

// Total returns input plus output tokens.
func (t Totals) Total() int { return t.InputTokens + t.OutputTokens }

// Tracker is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	totals map[string]*Totals
	sink   usageSink
	logger *slog.Logger
}

// NewTracker creates a tracker. sink and logger may be nil.
func NewTracker(sink usageSink, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		totals: make(map[string]*Totals),
		sink:   sink,
		logger: logger.With("component", "usage"),
	}
}

// Record adds one call's usage. Sink failures are logged and otherwise ignored.
func (t *Tracker) Record(modelID string, u model.Usage) {
	if modelID == "" {
		modelID = "unknown"
	}

	t.mu.Lock()
	tot, ok := t.totals[modelID]
	if !ok {
		tot = &Totals{ModelID: modelID}
		t.totals[modelID] = tot
	}
	tot.InputTokens += u.InputTokens
	tot.OutputTokens += u.OutputTokens
	tot.Calls++
	t.mu.Unlock()

	if t.sink != nil {
		if err := t.sink.AddUsage(modelID, u.InputTokens, u.OutputTokens); err != nil {
			t.logger.Warn("failed to persist usage", "model", modelID, "error", err)
		}
	}
}

// Get returns the totals for modelID.
func (t *Tracker) Get(modelID string) Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tot, ok := t.totals[modelID]; ok {
		return *tot
	}
	return Totals{ModelID: modelID}
}

// All returns every model's totals sorted by model id.
func (t *Tracker) All() []Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Totals, 0, len(t.totals))
	for _, id := range slices.Sorted(maps.Keys(t.totals)) {
		out = append(out, *t.totals[id])
	}
	return out
}

// Sum returns the combined totals across all models.
func (t *Tracker) Sum() Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sum Totals
	for _, tot := range t.totals {
		sum.InputTokens += tot.InputTokens
		sum.OutputTokens += tot.OutputTokens
		sum.Calls += tot.Calls
	}
	return sum
}

// Reset clears the in-memory totals. Persisted totals are untouched.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.totals)
}
