// Package seqguard serializes the results of concurrent view refreshes.
// Each named view carries a monotonically increasing sequence; a result is
// applied only when its ticket is still the latest issued for that view, so
// a slow stale response can never overwrite a newer one.
package seqguard

import (
	"github.com/puzpuzpuz/xsync/v4"
)

// Guard issues tickets per view name. Safe for concurrent use.
type Guard struct {
	seqs *xsync.Map[string, uint64]
}

// New creates an empty Guard.
func New() *Guard {
	return &Guard{seqs: xsync.NewMap[string, uint64]()}
}

// Issue advances the view's sequence and returns the ticket for the request
// that is about to start.
func (g *Guard) Issue(view string) Ticket {
	var seq uint64
	g.seqs.Compute(view, func(old uint64, _ bool) (uint64, xsync.ComputeOp) {
		seq = old + 1
		return seq, xsync.UpdateOp
	})
	return Ticket{guard: g, view: view, seq: seq}
}

// Ticket identifies one in-flight request for a view.
type Ticket struct {
	guard *Guard
	view  string
	seq   uint64
}

// Current reports whether no newer ticket has been issued for the view.
func (t Ticket) Current() bool {
	latest, ok := t.guard.seqs.Load(t.view)
	return ok && latest == t.seq
}

// Apply runs fn only when the ticket is still current and reports whether it
// ran. A superseded result is discarded silently.
func (t Ticket) Apply(fn func()) bool {
	applied := false
	t.guard.seqs.Compute(t.view, func(latest uint64, _ bool) (uint64, xsync.ComputeOp) {
		if latest == t.seq {
			applied = true
		}
		return latest, xsync.CancelOp
	})
	if applied {
		fn()
	}
	return applied
}
