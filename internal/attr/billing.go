package attr

import (
	"strings"

	"github.com/sells-group/crm-sidebar/pkg/attio"
)

// BillingStatus classifies how much of a deal has been invoiced.
type BillingStatus string

const (
	BillingNone    BillingStatus = "none"
	BillingPartial BillingStatus = "partial"
	BillingBilled  BillingStatus = "billed"
)

// BillingOptions maps workspace-specific select-option ids to billing
// statuses. The option ids are configuration, not constants: they differ per
// CRM workspace.
type BillingOptions struct {
	BilledOptionID  string
	PartialOptionID string
}

// Billing classifies a deal's billing_status attribute. Option-id match is
// authoritative; a title-substring check covers records whose select payload
// carries only display text.
func Billing(rec *attio.Record, opts BillingOptions) BillingStatus {
	entry := rec.First("billing_status")
	if entry == nil {
		return BillingNone
	}

	optionID := entry.Nested("option").Nested("id").Str("option_id")
	if optionID == "" {
		optionID = entry.Str("option_id")
	}
	if optionID == "" {
		optionID = entry.Str("status_id")
	}

	if optionID != "" {
		switch optionID {
		case opts.BilledOptionID:
			return BillingBilled
		case opts.PartialOptionID:
			return BillingPartial
		}
	}

	title := entry.Nested("option").Str("title")
	if title == "" {
		title = entry.Nested("status").Str("title")
	}
	if title == "" {
		title = entry.Str("value")
	}
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "partial"):
		return BillingPartial
	case strings.Contains(lower, "billed"):
		return BillingBilled
	}
	return BillingNone
}
