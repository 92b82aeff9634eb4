// Package relate classifies the relationship between deal records and
// person/company records. The CRM's query endpoint cannot filter on
// reference-typed attributes, and the attribute holding a relationship varies
// across workspaces and schema versions, so classification scans a fixed
// ordered list of candidate attribute names client-side.
package relate

import "github.com/sells-group/crm-sidebar/pkg/attio"

// PersonAttributes are the candidate attribute slugs that may hold a deal's
// person references, in evaluation order.
var PersonAttributes = []string{
	"associated_people",
	"people",
	"person",
	"contacts",
	"contact",
	"primary_contact",
}

// CompanyAttributes are the candidate attribute slugs that may hold a deal's
// company references, in evaluation order.
var CompanyAttributes = []string{
	"associated_company",
	"companies",
	"company",
	"organization",
	"organizations",
	"primary_company",
}

// ReferenceIDKeys are the alternate keys under which the backend stores "the
// record id being referenced", in evaluation order.
var ReferenceIDKeys = []string{
	"target_record_id",
	"referenced_record_id",
	"record_id",
}

// ReferencedID extracts the referenced record id from one reference entry,
// trying each known key in order. Returns "" when none is present.
func ReferencedID(entry attio.Entry) string {
	for _, key := range ReferenceIDKeys {
		if id := entry.Str(key); id != "" {
			return id
		}
	}
	return ""
}

// isRelated reports whether any entry of any candidate attribute references
// targetID. Records with no relationship attributes, or with empty value
// lists, are unrelated rather than errors.
func isRelated(rec *attio.Record, targetID string, candidates []string) bool {
	if rec == nil || rec.Values == nil || targetID == "" {
		return false
	}
	for _, attr := range candidates {
		for _, entry := range rec.Values[attr] {
			if ReferencedID(entry) == targetID {
				return true
			}
		}
	}
	return false
}

// DealRelatesToPerson reports whether the deal references the person.
func DealRelatesToPerson(deal *attio.Record, personID string) bool {
	return isRelated(deal, personID, PersonAttributes)
}

// DealRelatesToCompany reports whether the deal references the company.
func DealRelatesToCompany(deal *attio.Record, companyID string) bool {
	return isRelated(deal, companyID, CompanyAttributes)
}

// CompanyIDOfPerson resolves the company a person belongs to via the person's
// own reference attributes, trying company, primary_company, then companies.
func CompanyIDOfPerson(person *attio.Record) string {
	if person == nil || person.Values == nil {
		return ""
	}
	for _, attr := range []string{"company", "primary_company", "companies"} {
		for _, entry := range person.Values[attr] {
			if id := ReferencedID(entry); id != "" {
				return id
			}
		}
	}
	return ""
}
