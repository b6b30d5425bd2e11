// Package chart implements the mark overlay engine: it owns the list of
// synthetic trade markers and keeps the third-party chart widget's
// rendering in sync with it.
//
// The widget has no supported extension point for external markers, so the
// engine integrates by intercepting the widget's native mark-retrieval
// entry point: a decorating MarkSource calls through to the original and
// appends the engine's marks to whatever it returns. That interception is
// the only integration seam available; nothing else on the widget is ever
// mutated.
package chart

import (
	"github.com/saucesteals/photontools/internal/model"
)

// MarkCallback receives the result of a mark retrieval.
type MarkCallback func(marks []model.Mark)

// MarkSource is the widget's mark-retrieval entry point: it fetches the
// marks for a symbol over a time range and delivers them to the callback.
type MarkSource interface {
	GetMarks(symbol string, from, to int64, callback MarkCallback)
}

// Handle exposes the operations of the widget's active chart.
type Handle interface {
	// RefreshMarks asks the chart to re-pull its marks through the
	// currently installed MarkSource.
	RefreshMarks()
}

// Widget abstracts the third-party chart widget's global handle. It loads
// asynchronously and unpredictably, so readiness must be polled. The
// engine accesses it only through this capability interface, which also
// allows tests to supply a fake.
type Widget interface {
	// IsReady reports whether the widget's global handle has appeared.
	IsReady() bool

	// ActiveChart returns the active chart, or nil while the widget is
	// not ready.
	ActiveChart() Handle

	// MarkSource returns the currently installed mark-retrieval entry
	// point.
	MarkSource() MarkSource

	// SetMarkSource replaces the mark-retrieval entry point.
	SetMarkSource(source MarkSource)
}

// injectingSource decorates the widget's native MarkSource with the
// engine's in-memory mark list. It implements the same functional
// interface as the original, composing rather than replacing it.
type injectingSource struct {
	original MarkSource
	marks    func() []model.Mark
}

// GetMarks calls through to the original source and appends the engine's
// marks to the result before invoking the original completion callback.
func (s *injectingSource) GetMarks(symbol string, from, to int64, callback MarkCallback) {
	s.original.GetMarks(symbol, from, to, func(result []model.Mark) {
		callback(append(result, s.marks()...))
	})
}
