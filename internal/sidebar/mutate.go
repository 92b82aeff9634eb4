package sidebar

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-sidebar/pkg/attio"
)

// ValidationError reports a required form field missing or unusable. It is
// raised before any network call.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "sidebar: required field missing or invalid: " + e.Field
}

// PersonForm carries the create-person fields. Name and Email are required.
type PersonForm struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	JobTitle  string `json:"job_title,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
}

// PersonPatch carries the update-person fields. Nil means unchanged; a
// pointer to the empty string clears the field.
type PersonPatch struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	JobTitle  *string `json:"job_title,omitempty"`
	CompanyID *string `json:"company_id,omitempty"`
}

// CompanyPatch carries the update-company fields.
type CompanyPatch struct {
	Domain *string `json:"domain,omitempty"`
}

// DealForm carries the create-deal fields. Name, Value, and StageID are
// required; StageID is either a bare status id or the composite
// workspace|object|attribute|status form the stage list emits.
type DealForm struct {
	Name        string   `json:"name"`
	Value       *float64 `json:"value"`
	StageID     string   `json:"stage_id"`
	Description string   `json:"description,omitempty"`
	PersonID    string   `json:"person_id,omitempty"`
	CompanyID   string   `json:"company_id,omitempty"`
}

// nameValues builds the CRM name payload, splitting a display name into
// first/last parts.
func nameValues(name string) []map[string]any {
	parts := strings.Fields(strings.TrimSpace(name))
	first, last := "", ""
	if len(parts) > 0 {
		first = parts[0]
		last = strings.Join(parts[1:], " ")
	}
	return []map[string]any{{
		"first_name": first,
		"last_name":  last,
		"full_name":  strings.TrimSpace(name),
	}}
}

func companyReference(companyID string) []map[string]any {
	return []map[string]any{{
		"target_object":    "companies",
		"target_record_id": companyID,
	}}
}

// CreatePerson validates and creates a person record. Callers reload the
// sidebar state afterwards so the new record resolves.
func (s *Service) CreatePerson(ctx context.Context, form PersonForm) (*attio.Record, error) {
	if strings.TrimSpace(form.Name) == "" {
		return nil, &ValidationError{Field: "name"}
	}
	if strings.TrimSpace(form.Email) == "" {
		return nil, &ValidationError{Field: "email"}
	}

	values := map[string]any{
		"name":            nameValues(form.Name),
		"email_addresses": []map[string]any{{"email_address": form.Email}},
	}
	if form.Phone != "" {
		values["phone_numbers"] = []map[string]any{{"original_phone_number": form.Phone}}
	}
	if form.JobTitle != "" {
		values["job_title"] = []map[string]any{{"value": form.JobTitle}}
	}
	if form.CompanyID != "" {
		values["company"] = companyReference(form.CompanyID)
	}

	rec, err := s.crm.CreateRecord(ctx, s.cfg.PeopleObject, values)
	if err != nil {
		return nil, eris.Wrap(err, "sidebar: create person")
	}
	zap.L().Info("person created", zap.String("record_id", rec.ID.RecordID))
	return rec, nil
}

// UpdatePerson validates and applies a partial person update.
func (s *Service) UpdatePerson(ctx context.Context, recordID string, patch PersonPatch) (*attio.Record, error) {
	if recordID == "" {
		return nil, &ValidationError{Field: "record_id"}
	}

	values := map[string]any{}
	if patch.Name != nil {
		values["name"] = nameValues(*patch.Name)
	}
	if patch.Email != nil {
		values["email_addresses"] = []map[string]any{{"email_address": *patch.Email}}
	}
	if patch.Phone != nil {
		if *patch.Phone == "" {
			values["phone_numbers"] = []map[string]any{}
		} else {
			values["phone_numbers"] = []map[string]any{{"original_phone_number": *patch.Phone}}
		}
	}
	if patch.JobTitle != nil {
		if *patch.JobTitle == "" {
			values["job_title"] = []map[string]any{}
		} else {
			values["job_title"] = []map[string]any{{"value": *patch.JobTitle}}
		}
	}
	if patch.CompanyID != nil {
		if *patch.CompanyID == "" {
			values["company"] = []map[string]any{}
		} else {
			values["company"] = companyReference(*patch.CompanyID)
		}
	}
	if len(values) == 0 {
		return nil, &ValidationError{Field: "patch"}
	}

	rec, err := s.crm.UpdateRecord(ctx, s.cfg.PeopleObject, recordID, values)
	if err != nil {
		return nil, eris.Wrap(err, "sidebar: update person")
	}
	return rec, nil
}

// UpdateCompany applies a partial company update and force-refreshes the
// company list so the change is visible on the next load.
func (s *Service) UpdateCompany(ctx context.Context, recordID string, patch CompanyPatch) (*attio.Record, error) {
	if recordID == "" {
		return nil, &ValidationError{Field: "record_id"}
	}

	values := map[string]any{}
	if patch.Domain != nil {
		if *patch.Domain == "" {
			values["domains"] = []map[string]any{}
		} else {
			values["domains"] = []map[string]any{{"domain": *patch.Domain}}
		}
	}
	if len(values) == 0 {
		return nil, &ValidationError{Field: "patch"}
	}

	rec, err := s.crm.UpdateRecord(ctx, s.cfg.CompaniesObject, recordID, values)
	if err != nil {
		return nil, eris.Wrap(err, "sidebar: update company")
	}
	s.companies.Invalidate()
	return rec, nil
}

// statusComponent extracts the status id from a composite stage id. Bare
// status ids pass through.
func statusComponent(stageID string) string {
	parts := strings.Split(stageID, "|")
	return parts[len(parts)-1]
}

// CreateDeal validates and creates a deal record, then force-refreshes the
// deal slot so the new deal appears without waiting out the TTL.
func (s *Service) CreateDeal(ctx context.Context, form DealForm) (*attio.Record, error) {
	if strings.TrimSpace(form.Name) == "" {
		return nil, &ValidationError{Field: "name"}
	}
	if form.Value == nil {
		return nil, &ValidationError{Field: "value"}
	}
	if statusComponent(form.StageID) == "" {
		return nil, &ValidationError{Field: "stage_id"}
	}

	values := map[string]any{
		"name":  []map[string]any{{"value": form.Name}},
		"value": []map[string]any{{"currency_value": *form.Value}},
		"stage": []map[string]any{{"status": statusComponent(form.StageID)}},
	}
	if form.Description != "" {
		values["description"] = []map[string]any{{"value": form.Description}}
	}
	if form.PersonID != "" {
		values["associated_people"] = []map[string]any{{
			"target_object":    "people",
			"target_record_id": form.PersonID,
		}}
	}
	if form.CompanyID != "" {
		values["associated_company"] = companyReference(form.CompanyID)
	}

	rec, err := s.crm.CreateRecord(ctx, s.cfg.DealsObject, values)
	if err != nil {
		return nil, eris.Wrap(err, "sidebar: create deal")
	}
	s.deals.Invalidate()
	zap.L().Info("deal created",
		zap.String("record_id", rec.ID.RecordID),
		zap.String("person_id", form.PersonID),
	)
	return rec, nil
}
