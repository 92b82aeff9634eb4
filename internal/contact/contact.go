// Package contact resolves which CRM person record corresponds to an
// externally supplied email address.
package contact

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-sidebar/internal/attr"
	"github.com/sells-group/crm-sidebar/internal/relate"
	"github.com/sells-group/crm-sidebar/pkg/attio"
)

// ErrPersonNotFound means no person record matched the email. This is a
// normal outcome: the caller offers record creation rather than an error
// banner.
var ErrPersonNotFound = eris.New("contact: no person matches email")

// ErrPersonMalformed means a person record matched but is missing its record
// id. That is a data-integrity problem in the CRM, distinct from not-found.
var ErrPersonMalformed = eris.New("contact: person record has no usable id")

// Person is the semantic view of a resolved person record.
type Person struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	JobTitle  string        `json:"job_title,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	CompanyID string        `json:"company_id,omitempty"`
	Record    *attio.Record `json:"-"`
}

// Resolver looks up people in the CRM.
type Resolver struct {
	crm          attio.Client
	peopleObject string
}

// NewResolver creates a person resolver querying the given object slug.
func NewResolver(crm attio.Client, peopleObject string) *Resolver {
	return &Resolver{crm: crm, peopleObject: peopleObject}
}

// ResolveByEmail performs a single substring-match query on the email
// attribute, limit one. Outcomes: a well-formed Person; ErrPersonNotFound on
// an empty result; ErrPersonMalformed when the matched record lacks an id.
// Transport errors propagate wrapped.
func (r *Resolver) ResolveByEmail(ctx context.Context, email string) (*Person, error) {
	records, err := r.crm.QueryRecords(ctx, r.peopleObject, attio.QueryRequest{
		Filter: attio.ContainsFilter("email_addresses", email),
		Limit:  1,
	})
	if err != nil {
		return nil, eris.Wrap(err, "contact: search person by email")
	}
	if len(records) == 0 {
		return nil, ErrPersonNotFound
	}

	rec := records[0]
	if rec.ID.RecordID == "" {
		zap.L().Warn("person record missing id",
			zap.String("email", email),
			zap.String("workspace", rec.ID.WorkspaceID),
		)
		return nil, ErrPersonMalformed
	}

	person := &Person{
		ID:        rec.ID.RecordID,
		Name:      attr.Name(&rec),
		Email:     attr.Email(&rec),
		JobTitle:  attr.JobTitle(&rec),
		Phone:     attr.Phone(&rec),
		CompanyID: relate.CompanyIDOfPerson(&rec),
		Record:    &rec,
	}
	zap.L().Debug("person resolved",
		zap.String("email", email),
		zap.String("record_id", person.ID),
		zap.String("company_id", person.CompanyID),
	)
	return person, nil
}
