// Package attr extracts typed scalar values out of the CRM's heterogeneous
// attribute-value entries. The backend stores the same logical field under
// inconsistent keys across schema versions, so every accessor applies a fixed
// fallback chain and treats "absent" as a valid terminal result.
package attr

import (
	"strings"
	"time"

	"github.com/sells-group/crm-sidebar/pkg/attio"
)

// DefaultCurrency is assumed when a currency value carries no currency code.
const DefaultCurrency = "USD"

// Scalar returns the first non-empty string found by trying each key on the
// active entry of the named attribute. Absent attributes yield "".
func Scalar(rec *attio.Record, attribute string, keys ...string) string {
	entry := rec.First(attribute)
	if entry == nil {
		return ""
	}
	for _, key := range keys {
		if v := entry.Str(key); v != "" {
			return v
		}
	}
	return ""
}

// Name resolves a person- or company-style name attribute: full_name first,
// then first_name + last_name joined, then the generic value key.
func Name(rec *attio.Record) string {
	entry := rec.First("name")
	if entry == nil {
		return ""
	}
	if full := entry.Str("full_name"); full != "" {
		return full
	}
	first := entry.Str("first_name")
	last := entry.Str("last_name")
	if first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	return entry.Str("value")
}

// Email returns the active email address of a person record.
func Email(rec *attio.Record) string {
	return Scalar(rec, "email_addresses", "email_address", "value")
}

// Domain returns the active domain of a company record.
func Domain(rec *attio.Record) string {
	return Scalar(rec, "domains", "domain", "value")
}

// Description returns the active description text of a record.
func Description(rec *attio.Record) string {
	return Scalar(rec, "description", "value")
}

// JobTitle returns the active job title of a person record.
func JobTitle(rec *attio.Record) string {
	return Scalar(rec, "job_title", "value")
}

// Phone returns the active phone number of a person record.
func Phone(rec *attio.Record) string {
	return Scalar(rec, "phone_numbers", "original_phone_number", "value")
}

// Money is a normalized currency amount.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Value normalizes a deal's value attribute, which is stored as either a
// currency pair (currency_value + currency_code) or a plain number. Missing
// currency codes default to DefaultCurrency.
func Value(rec *attio.Record) (Money, bool) {
	entry := rec.First("value")
	if entry == nil {
		return Money{}, false
	}
	amount, ok := entry.Num("currency_value")
	if !ok {
		amount, ok = entry.Num("value")
	}
	if !ok {
		return Money{}, false
	}
	cur := entry.Str("currency_code")
	if cur == "" {
		cur = entry.Str("currency")
	}
	if cur == "" {
		cur = DefaultCurrency
	}
	return Money{Amount: amount, Currency: cur}, true
}

// dateLayouts are the close-date encodings seen in the wild: bare dates from
// date-typed attributes and full timestamps from older schema versions.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// CloseDate returns a deal's close date, when present and parseable.
func CloseDate(rec *attio.Record) (time.Time, bool) {
	raw := Scalar(rec, "close_date", "value")
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// StageLabel resolves the display label of a deal's stage attribute. The
// status payload varies by schema version: an embedded status object, an
// embedded option object, a bare status_id resolvable against the stage
// list, or a plain value.
func StageLabel(rec *attio.Record, stages []attio.StatusOption) string {
	entry := rec.First("stage")
	if entry == nil {
		return ""
	}
	if title := entry.Nested("status").Str("title"); title != "" {
		return title
	}
	if title := entry.Nested("option").Str("title"); title != "" {
		return title
	}
	if statusID := entry.Str("status_id"); statusID != "" {
		for _, s := range stages {
			if s.ID.StatusID == statusID {
				return s.Title
			}
		}
	}
	return entry.Str("value")
}
