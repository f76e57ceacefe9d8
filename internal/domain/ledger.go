package domain

import (
	"sort"
	"sync"
)

// PairKey identifies an ordered (from, to) pair by symbol.
type PairKey struct {
	From string
	To   string
}

// LedgerEntry is one reported row of the best-ratio ledger.
type LedgerEntry struct {
	From string
	To   string
	Diff float64
}

// BestRatioLedger tracks the best advantage observed per pair since the
// last trade. Purely observational: it feeds the heartbeat report and is
// never consulted for trading decisions. Safe for concurrent use; the
// scout and heartbeat cadences run on separate goroutines.
type BestRatioLedger struct {
	mu   sync.Mutex
	best map[PairKey]float64
}

func NewBestRatioLedger() *BestRatioLedger {
	return &BestRatioLedger{best: make(map[PairKey]float64)}
}

// Record keeps the maximum advantage seen for the pair.
func (l *BestRatioLedger) Record(from, to string, diff float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := PairKey{From: from, To: to}
	if prev, ok := l.best[key]; !ok || diff > prev {
		l.best[key] = diff
	}
}

func (l *BestRatioLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.best)
}

// Clear resets the ledger, called after a successful transition.
func (l *BestRatioLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.best = make(map[PairKey]float64)
}

// Entries returns the ledger sorted by advantage, best first. Ties are
// ordered by (from, to) so output is deterministic.
func (l *BestRatioLedger) Entries() []LedgerEntry {
	l.mu.Lock()
	entries := make([]LedgerEntry, 0, len(l.best))
	for key, diff := range l.best {
		entries = append(entries, LedgerEntry{From: key.From, To: key.To, Diff: diff})
	}
	l.mu.Unlock()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Diff != entries[j].Diff {
			return entries[i].Diff > entries[j].Diff
		}
		if entries[i].From != entries[j].From {
			return entries[i].From < entries[j].From
		}
		return entries[i].To < entries[j].To
	})
	return entries
}
