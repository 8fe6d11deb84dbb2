// Package gauge provides the small collaborator bundle long-running
// volume/geometry operations take by reference: a progress counter, a
// logger, and a yes/no asker. A headless default exists for batch and CLI
// use where nothing drives a UI.
package gauge

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Gauge is the progress/cancellation surface a filter or pipeline step
// reports through. Add is called once per processed chunk (a z-slice, a
// time frame); Cancelled is polled at chunk boundaries.
type Gauge interface {
	Add(n int64)
	Cancel()
	Cancelled() bool
}

// Atomic is the default Gauge: a single atomic counter plus an atomic
// cancellation flag, safe for concurrent use by the per-slice goroutines
// spawned inside a filter.
type Atomic struct {
	count     int64
	cancelled int32
}

// NewAtomic returns a fresh, non-cancelled gauge.
func NewAtomic() *Atomic { return &Atomic{} }

func (g *Atomic) Add(n int64) { atomic.AddInt64(&g.count, n) }
func (g *Atomic) Cancel()     { atomic.StoreInt32(&g.cancelled, 1) }
func (g *Atomic) Cancelled() bool {
	return atomic.LoadInt32(&g.cancelled) != 0
}

// Count returns the current progress counter.
func (g *Atomic) Count() int64 { return atomic.LoadInt64(&g.count) }

// Asker resolves a yes/no confirmation request (e.g. "more than 25% of
// solution points fall outside the mask, continue?"). The headless
// default always answers yes.
type Asker func(prompt string) bool

func alwaysYes(string) bool { return true }

// Collaborators bundles the gauge, logger, and asker a core operation
// needs; passed by reference so call sites can share one instance across
// a pipeline.
type Collaborators struct {
	Gauge Gauge
	Log   *logrus.Entry
	Ask   Asker
}

// Headless returns a Collaborators with a fresh Atomic gauge, the
// standard logrus logger, and an asker that always confirms — the
// default for CLI and test use.
func Headless() *Collaborators {
	return &Collaborators{
		Gauge: NewAtomic(),
		Log:   logrus.NewEntry(logrus.StandardLogger()),
		Ask:   alwaysYes,
	}
}
