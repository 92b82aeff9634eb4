// Package deal aggregates the person-related and company-related subsets of
// the bulk deal collection into the deduplicated, deterministically ordered
// list the sidebar displays.
package deal

import (
	"sort"
	"time"

	"github.com/sells-group/crm-sidebar/internal/attr"
	"github.com/sells-group/crm-sidebar/internal/relate"
	"github.com/sells-group/crm-sidebar/pkg/attio"
)

// Deal is the display view of one deal record.
type Deal struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Stage        string             `json:"stage,omitempty"`
	Value        *attr.Money        `json:"value,omitempty"`
	ValueDisplay string             `json:"value_display,omitempty"`
	Description  string             `json:"description,omitempty"`
	CloseDate    *time.Time         `json:"close_date,omitempty"`
	Won          bool               `json:"won"`
	Billing      attr.BillingStatus `json:"billing"`
}

// Aggregator turns raw deal records into ordered Deal views.
type Aggregator struct {
	stages  []attio.StatusOption
	billing attr.BillingOptions

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.nowFunc = now
	}
}

// NewAggregator creates an aggregator resolving stage labels against stages
// and billing statuses against the workspace's configured option ids.
func NewAggregator(stages []attio.StatusOption, billing attr.BillingOptions, opts ...Option) *Aggregator {
	a := &Aggregator{
		stages:  stages,
		billing: billing,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Related selects from the bulk deal set the deals referencing the person or
// (when companyID is non-empty) the company, deduplicates by record id with
// the first occurrence winning — person matches come first, so the person
// copy is the one retained — and orders the result: open deals before closed
// ones, close date descending within each partition, deals without a close
// date first among the opens.
func (a *Aggregator) Related(all []attio.Record, personID, companyID string) []Deal {
	var picked []attio.Record
	for i := range all {
		if relate.DealRelatesToPerson(&all[i], personID) {
			picked = append(picked, all[i])
		}
	}
	if companyID != "" {
		for i := range all {
			if relate.DealRelatesToCompany(&all[i], companyID) {
				picked = append(picked, all[i])
			}
		}
	}

	seen := make(map[string]bool, len(picked))
	deals := make([]Deal, 0, len(picked))
	for i := range picked {
		rec := &picked[i]
		// Malformed upstream records without an identity are dropped rather
		// than surfaced.
		if rec.ID.RecordID == "" {
			continue
		}
		if seen[rec.ID.RecordID] {
			continue
		}
		seen[rec.ID.RecordID] = true
		deals = append(deals, a.summarize(rec))
	}

	a.order(deals)
	return deals
}

// summarize builds the display view of one record.
func (a *Aggregator) summarize(rec *attio.Record) Deal {
	d := Deal{
		ID:          rec.ID.RecordID,
		Name:        attr.Name(rec),
		Stage:       attr.StageLabel(rec, a.stages),
		Description: attr.Description(rec),
		Billing:     attr.Billing(rec, a.billing),
	}
	if d.Name == "" {
		d.Name = "Unnamed Deal"
	}
	if money, ok := attr.Value(rec); ok {
		d.Value = &money
		d.ValueDisplay = money.Format()
	}
	if ts, ok := attr.CloseDate(rec); ok {
		d.CloseDate = &ts
	}
	d.Won = a.closed(d.CloseDate)
	return d
}

// closed reports whether a close date marks the deal closed: today or in the
// past relative to the start of the current day. The CRM has no explicit won
// flag, so "closed" doubles as "won" in the sidebar.
func (a *Aggregator) closed(closeDate *time.Time) bool {
	if closeDate == nil {
		return false
	}
	now := a.nowFunc()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !closeDate.After(startOfDay)
}

// order sorts deals in place: open before closed, then close date descending
// with absent dates sorting as infinitely far in the future.
func (a *Aggregator) order(deals []Deal) {
	sort.SliceStable(deals, func(i, j int) bool {
		if deals[i].Won != deals[j].Won {
			return !deals[i].Won
		}
		return closeKey(deals[i].CloseDate).After(closeKey(deals[j].CloseDate))
	})
}

// farFuture stands in for an absent close date during ordering.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

func closeKey(ts *time.Time) time.Time {
	if ts == nil {
		return farFuture
	}
	return *ts
}
