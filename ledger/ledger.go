// Package ledger keeps the in-memory, append-only record of accepted and
// geo-tagged detections for one session
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/swdee/go-cropwatch/disease"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/postprocess"
	"gonum.org/v1/gonum/stat"
)

// Entry is an accepted detection with the location it was tagged with
type Entry struct {
	// Index is the insertion order of the entry within the ledger, from 0
	Index int
	postprocess.Accepted
	Location   geo.Point
	RecordedAt time.Time
}

// Ledger is an ordered, append-only sequence of Entries.  It has a single
// writer per session but may be read concurrently, eg: by a status endpoint.
type Ledger struct {
	mu      sync.RWMutex
	table   disease.Table
	entries []Entry
	now     func() time.Time
}

// New returns an empty Ledger that only accepts labels in table
func New(table disease.Table) *Ledger {
	return &Ledger{
		table: table,
		now:   time.Now,
	}
}

// Record appends an entry for the accepted detection at loc and returns it.
// Detections with a label not in the disease table are refused.
func (l *Ledger) Record(det postprocess.Accepted, loc geo.Point) (Entry, error) {

	if !l.table.Has(det.Label) {
		return Entry{}, fmt.Errorf("label %q is not in the disease table", det.Label)
	}

	if err := loc.Validate(); err != nil {
		return Entry{}, fmt.Errorf("invalid location for %s: %w", det.Label, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		Index:      len(l.entries),
		Accepted:   det,
		Location:   loc,
		RecordedAt: l.now(),
	}

	l.entries = append(l.entries, e)

	return e, nil
}

// All returns a copy of the entries in insertion order
func (l *Ledger) All() []Entry {

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)

	return out
}

// Locations returns the location of each entry in insertion order
func (l *Ledger) Locations() []geo.Point {
	return lo.Map(l.All(), func(e Entry, _ int) geo.Point {
		return e.Location
	})
}

// Len returns the number of entries
func (l *Ledger) Len() int {

	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// Summary describes the contents of a ledger
type Summary struct {
	Count int `json:"count"`
	// ByLabel is the number of entries for each disease label
	ByLabel map[string]int `json:"by_label"`
	// Labels are the distinct labels in order of first appearance
	Labels         []string `json:"labels"`
	MeanConfidence float64  `json:"mean_confidence"`
	MaxConfidence  float64  `json:"max_confidence"`
}

// Summary returns counts and confidence statistics of the entries
func (l *Ledger) Summary() Summary {

	entries := l.All()

	if len(entries) == 0 {
		return Summary{ByLabel: map[string]int{}}
	}

	labels := lo.Map(entries, func(e Entry, _ int) string { return e.Label })
	confs := lo.Map(entries, func(e Entry, _ int) float64 { return e.Confidence })

	return Summary{
		Count:          len(entries),
		ByLabel:        lo.CountValues(labels),
		Labels:         lo.Uniq(labels),
		MeanConfidence: stat.Mean(confs, nil),
		MaxConfidence:  lo.Max(confs),
	}
}
