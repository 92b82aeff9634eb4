package attr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-sidebar/pkg/attio"
)

func record(values map[string][]attio.Entry) *attio.Record {
	return &attio.Record{
		ID:     attio.RecordID{WorkspaceID: "ws-1", ObjectID: "obj-1", RecordID: "rec-1"},
		Values: values,
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name   string
		values map[string][]attio.Entry
		want   string
	}{
		{
			name: "full name wins",
			values: map[string][]attio.Entry{
				"name": {{"full_name": "Ada Lovelace", "first_name": "Ada", "last_name": "Lovelace"}},
			},
			want: "Ada Lovelace",
		},
		{
			name: "first and last joined",
			values: map[string][]attio.Entry{
				"name": {{"first_name": "Ada", "last_name": "Lovelace"}},
			},
			want: "Ada Lovelace",
		},
		{
			name: "first only trims",
			values: map[string][]attio.Entry{
				"name": {{"first_name": "Ada"}},
			},
			want: "Ada",
		},
		{
			name: "generic value fallback",
			values: map[string][]attio.Entry{
				"name": {{"value": "Acme Corp"}},
			},
			want: "Acme Corp",
		},
		{
			name:   "absent attribute",
			values: map[string][]attio.Entry{},
			want:   "",
		},
		{
			name: "empty value list",
			values: map[string][]attio.Entry{
				"name": {},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(record(tt.values)))
		})
	}
}

func TestScalarFallbackOrder(t *testing.T) {
	rec := record(map[string][]attio.Entry{
		"email_addresses": {{"email_address": "a@x.com", "value": "ignored"}},
	})
	assert.Equal(t, "a@x.com", Email(rec))

	rec = record(map[string][]attio.Entry{
		"email_addresses": {{"value": "b@x.com"}},
	})
	assert.Equal(t, "b@x.com", Email(rec))

	assert.Equal(t, "", Email(record(nil)))
	assert.Equal(t, "", Email(nil))
}

func TestValue(t *testing.T) {
	tests := []struct {
		name   string
		values map[string][]attio.Entry
		want   Money
		wantOK bool
	}{
		{
			name: "currency pair",
			values: map[string][]attio.Entry{
				"value": {{"currency_value": 15000.0, "currency_code": "EUR"}},
			},
			want:   Money{Amount: 15000, Currency: "EUR"},
			wantOK: true,
		},
		{
			name: "plain number defaults currency",
			values: map[string][]attio.Entry{
				"value": {{"value": 500.0}},
			},
			want:   Money{Amount: 500, Currency: "USD"},
			wantOK: true,
		},
		{
			name: "currency pair without code",
			values: map[string][]attio.Entry{
				"value": {{"currency_value": 42.0}},
			},
			want:   Money{Amount: 42, Currency: "USD"},
			wantOK: true,
		},
		{
			name:   "absent",
			values: map[string][]attio.Entry{},
			wantOK: false,
		},
		{
			name: "non-numeric value",
			values: map[string][]attio.Entry{
				"value": {{"value": "not a number"}},
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Value(record(tt.values))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMoneyFormat(t *testing.T) {
	assert.Equal(t, "?? 12", Money{Amount: 12, Currency: "??"}.Format())
	got := Money{Amount: 1200, Currency: "USD"}.Format()
	assert.Contains(t, got, "1,200")
}

func TestCloseDate(t *testing.T) {
	rec := record(map[string][]attio.Entry{
		"close_date": {{"value": "2025-11-30"}},
	})
	ts, ok := CloseDate(rec)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), ts)

	rec = record(map[string][]attio.Entry{
		"close_date": {{"value": "2025-11-30T12:00:00Z"}},
	})
	_, ok = CloseDate(rec)
	assert.True(t, ok)

	rec = record(map[string][]attio.Entry{
		"close_date": {{"value": "not-a-date"}},
	})
	_, ok = CloseDate(rec)
	assert.False(t, ok)

	_, ok = CloseDate(record(nil))
	assert.False(t, ok)
}

func TestStageLabel(t *testing.T) {
	stages := []attio.StatusOption{
		{ID: attio.StatusID{StatusID: "st-1"}, Title: "Discovery"},
		{ID: attio.StatusID{StatusID: "st-2"}, Title: "Negotiation"},
	}

	tests := []struct {
		name  string
		entry attio.Entry
		want  string
	}{
		{
			name:  "embedded status",
			entry: attio.Entry{"status": map[string]any{"title": "Won"}},
			want:  "Won",
		},
		{
			name:  "embedded option",
			entry: attio.Entry{"option": map[string]any{"title": "Qualifying"}},
			want:  "Qualifying",
		},
		{
			name:  "status id lookup",
			entry: attio.Entry{"status_id": "st-2"},
			want:  "Negotiation",
		},
		{
			name:  "unknown status id falls through",
			entry: attio.Entry{"status_id": "st-999"},
			want:  "",
		},
		{
			name:  "plain value",
			entry: attio.Entry{"value": "Lead"},
			want:  "Lead",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(map[string][]attio.Entry{"stage": {tt.entry}})
			assert.Equal(t, tt.want, StageLabel(rec, stages))
		})
	}

	assert.Equal(t, "", StageLabel(record(nil), stages))
}

func TestBilling(t *testing.T) {
	opts := BillingOptions{
		BilledOptionID:  "opt-billed",
		PartialOptionID: "opt-partial",
	}

	tests := []struct {
		name  string
		entry attio.Entry
		want  BillingStatus
	}{
		{
			name:  "nested option id billed",
			entry: attio.Entry{"option": map[string]any{"id": map[string]any{"option_id": "opt-billed"}}},
			want:  BillingBilled,
		},
		{
			name:  "direct option id partial",
			entry: attio.Entry{"option_id": "opt-partial"},
			want:  BillingPartial,
		},
		{
			name:  "status id variant",
			entry: attio.Entry{"status_id": "opt-billed"},
			want:  BillingBilled,
		},
		{
			name:  "title fallback partial beats billed",
			entry: attio.Entry{"option": map[string]any{"title": "Partially Billed"}},
			want:  BillingPartial,
		},
		{
			name:  "title fallback billed",
			entry: attio.Entry{"status": map[string]any{"title": "Billed"}},
			want:  BillingBilled,
		},
		{
			name:  "unknown option id and title",
			entry: attio.Entry{"option_id": "opt-other", "value": "Open"},
			want:  BillingNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(map[string][]attio.Entry{"billing_status": {tt.entry}})
			assert.Equal(t, tt.want, Billing(rec, opts))
		})
	}

	assert.Equal(t, BillingNone, Billing(record(nil), opts))
}
