// Package sidebar owns the aggregate view the plugin frontend renders: it
// orchestrates contact resolution, the cached bulk fetches, relationship
// classification, and deal aggregation into one atomically published state.
package sidebar

import (
	"strings"

	"github.com/sells-group/crm-sidebar/internal/attr"
	"github.com/sells-group/crm-sidebar/internal/contact"
	"github.com/sells-group/crm-sidebar/internal/deal"
	"github.com/sells-group/crm-sidebar/internal/participant"
	"github.com/sells-group/crm-sidebar/pkg/attio"
)

// Company is the display view of a company record.
type Company struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
}

// Stage is one selectable deal stage. ID is the composite
// workspace|object|attribute|status identifier the create-deal form posts
// back.
type Stage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// State is the aggregate view model for the active conversation. It is
// replaced wholesale on conversation change and patched atomically when a
// load completes; partial results of an in-flight load are never visible.
type State struct {
	ConversationID string                    `json:"conversation_id,omitempty"`
	TargetEmail    string                    `json:"target_email,omitempty"`
	Participants   []participant.Participant `json:"participants,omitempty"`
	Loading        bool                      `json:"loading"`
	Error          string                    `json:"error,omitempty"`
	Person         *contact.Person           `json:"person"`
	Company        *Company                  `json:"company"`
	Deals          []deal.Deal               `json:"deals"`
	Companies      []Company                 `json:"companies"`
	DealStages     []Stage                   `json:"deal_stages"`
}

func companyView(rec *attio.Record) *Company {
	if rec == nil || rec.ID.RecordID == "" {
		return nil
	}
	return &Company{
		ID:          rec.ID.RecordID,
		Name:        attr.Name(rec),
		Domain:      attr.Domain(rec),
		Description: attr.Description(rec),
	}
}

func companyViews(recs []attio.Record) []Company {
	out := make([]Company, 0, len(recs))
	for i := range recs {
		if c := companyView(&recs[i]); c != nil {
			out = append(out, *c)
		}
	}
	return out
}

func stageViews(options []attio.StatusOption) []Stage {
	out := make([]Stage, 0, len(options))
	for _, o := range options {
		out = append(out, Stage{
			ID:    strings.Join([]string{o.ID.WorkspaceID, o.ID.ObjectID, o.ID.AttributeID, o.ID.StatusID}, "|"),
			Title: o.Title,
		})
	}
	return out
}
