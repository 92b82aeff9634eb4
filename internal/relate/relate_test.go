package relate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/crm-sidebar/pkg/attio"
)

func deal(values map[string][]attio.Entry) *attio.Record {
	return &attio.Record{
		ID:     attio.RecordID{RecordID: "deal-1"},
		Values: values,
	}
}

func TestDealRelatesToPerson(t *testing.T) {
	tests := []struct {
		name   string
		values map[string][]attio.Entry
		target string
		want   bool
	}{
		{
			name: "target_record_id match",
			values: map[string][]attio.Entry{
				"associated_people": {{"target_record_id": "p-1"}},
			},
			target: "p-1",
			want:   true,
		},
		{
			name: "referenced_record_id match",
			values: map[string][]attio.Entry{
				"people": {{"referenced_record_id": "p-1"}},
			},
			target: "p-1",
			want:   true,
		},
		{
			name: "record_id match on late candidate",
			values: map[string][]attio.Entry{
				"primary_contact": {{"record_id": "p-1"}},
			},
			target: "p-1",
			want:   true,
		},
		{
			name: "second entry of value list",
			values: map[string][]attio.Entry{
				"contacts": {
					{"target_record_id": "p-other"},
					{"target_record_id": "p-1"},
				},
			},
			target: "p-1",
			want:   true,
		},
		{
			name: "no match",
			values: map[string][]attio.Entry{
				"associated_people": {{"target_record_id": "p-other"}},
			},
			target: "p-1",
			want:   false,
		},
		{
			name:   "no relationship attributes",
			values: map[string][]attio.Entry{"name": {{"value": "Deal"}}},
			target: "p-1",
			want:   false,
		},
		{
			name: "empty value list",
			values: map[string][]attio.Entry{
				"people": {},
			},
			target: "p-1",
			want:   false,
		},
		{
			name: "company attribute is not a person candidate",
			values: map[string][]attio.Entry{
				"associated_company": {{"target_record_id": "p-1"}},
			},
			target: "p-1",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DealRelatesToPerson(deal(tt.values), tt.target))
		})
	}

	assert.False(t, DealRelatesToPerson(nil, "p-1"))
	assert.False(t, DealRelatesToPerson(deal(nil), "p-1"))
	assert.False(t, DealRelatesToPerson(deal(map[string][]attio.Entry{
		"people": {{"target_record_id": "p-1"}},
	}), ""))
}

func TestDealRelatesToCompany(t *testing.T) {
	d := deal(map[string][]attio.Entry{
		"organization": {{"referenced_record_id": "c-7"}},
	})
	assert.True(t, DealRelatesToCompany(d, "c-7"))
	assert.False(t, DealRelatesToCompany(d, "c-8"))
}

// Classification must depend only on the record's values and the fixed
// candidate lists: a record rebuilt with identical content classifies
// identically regardless of map construction order.
func TestClassificationDeterministic(t *testing.T) {
	build := func(order []string) *attio.Record {
		values := make(map[string][]attio.Entry)
		for _, attr := range order {
			switch attr {
			case "people":
				values["people"] = []attio.Entry{{"target_record_id": "p-1"}}
			case "contacts":
				values["contacts"] = []attio.Entry{{"target_record_id": "p-2"}}
			case "name":
				values["name"] = []attio.Entry{{"value": "Deal"}}
			}
		}
		return deal(values)
	}

	a := build([]string{"people", "contacts", "name"})
	b := build([]string{"name", "contacts", "people"})

	for i := 0; i < 50; i++ {
		assert.Equal(t, DealRelatesToPerson(a, "p-1"), DealRelatesToPerson(b, "p-1"))
		assert.Equal(t, DealRelatesToPerson(a, "p-2"), DealRelatesToPerson(b, "p-2"))
		assert.Equal(t, DealRelatesToPerson(a, "p-3"), DealRelatesToPerson(b, "p-3"))
	}
}

func TestReferencedID(t *testing.T) {
	assert.Equal(t, "a", ReferencedID(attio.Entry{"target_record_id": "a", "record_id": "c"}))
	assert.Equal(t, "b", ReferencedID(attio.Entry{"referenced_record_id": "b"}))
	assert.Equal(t, "c", ReferencedID(attio.Entry{"record_id": "c"}))
	assert.Equal(t, "", ReferencedID(attio.Entry{"other": "x"}))
	assert.Equal(t, "", ReferencedID(nil))
}

func TestCompanyIDOfPerson(t *testing.T) {
	person := &attio.Record{
		Values: map[string][]attio.Entry{
			"primary_company": {{"referenced_record_id": "c-2"}},
		},
	}
	assert.Equal(t, "c-2", CompanyIDOfPerson(person))

	person = &attio.Record{
		Values: map[string][]attio.Entry{
			"company":         {{"target_record_id": "c-1"}},
			"primary_company": {{"referenced_record_id": "c-2"}},
		},
	}
	assert.Equal(t, "c-1", CompanyIDOfPerson(person))

	assert.Equal(t, "", CompanyIDOfPerson(nil))
	assert.Equal(t, "", CompanyIDOfPerson(&attio.Record{}))
}
