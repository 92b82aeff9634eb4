package attio

import "time"

// RecordID is the composite identifier of a record: every record lives in a
// workspace, belongs to an object type, and has its own record id.
type RecordID struct {
	WorkspaceID string `json:"workspace_id"`
	ObjectID    string `json:"object_id"`
	RecordID    string `json:"record_id"`
}

// Entry is a single attribute-value slot. The API stores every attribute as a
// list of entries with an opaque, attribute-type-specific shape, so entries
// are decoded as loose maps and interpreted by callers.
type Entry map[string]any

// Str returns the string stored under key, or "" when the key is absent or
// holds a non-string.
func (e Entry) Str(key string) string {
	if e == nil {
		return ""
	}
	s, _ := e[key].(string)
	return s
}

// Num returns the numeric value stored under key. JSON numbers decode as
// float64; integers stored by other API versions are handled too.
func (e Entry) Num(key string) (float64, bool) {
	if e == nil {
		return 0, false
	}
	switch v := e[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Nested returns the object stored under key as an Entry, or nil.
func (e Entry) Nested(key string) Entry {
	if e == nil {
		return nil
	}
	if m, ok := e[key].(map[string]any); ok {
		return Entry(m)
	}
	return nil
}

// Record is one entity instance (person, company, or deal). Values maps
// attribute slug to its value list; only the first entry of a list is the
// active value, later entries are historical.
type Record struct {
	ID        RecordID           `json:"id"`
	Values    map[string][]Entry `json:"values"`
	CreatedAt time.Time          `json:"created_at"`
}

// First returns the active (first) entry of the named attribute, or nil when
// the attribute is absent or its value list is empty.
func (r *Record) First(attr string) Entry {
	if r == nil || len(r.Values[attr]) == 0 {
		return nil
	}
	return r.Values[attr][0]
}

// StatusID identifies one status option of a status-typed attribute.
type StatusID struct {
	WorkspaceID string `json:"workspace_id"`
	ObjectID    string `json:"object_id"`
	AttributeID string `json:"attribute_id"`
	StatusID    string `json:"status_id"`
}

// StatusOption is one selectable status (e.g. a deal stage).
type StatusOption struct {
	ID         StatusID `json:"id"`
	Title      string   `json:"title"`
	IsArchived bool     `json:"is_archived"`
}

// AttributeID identifies an attribute definition on an object type.
type AttributeID struct {
	WorkspaceID string `json:"workspace_id"`
	ObjectID    string `json:"object_id"`
	AttributeID string `json:"attribute_id"`
}

// Attribute is the metadata of one attribute on an object type.
type Attribute struct {
	ID      AttributeID `json:"id"`
	Title   string      `json:"title"`
	APISlug string      `json:"api_slug"`
	Type    string      `json:"type"`
}

// Sort is one ordering clause of a records query.
type Sort struct {
	Attribute string `json:"attribute"`
	Direction string `json:"direction"`
}

// QueryRequest is the body for POST /objects/{object}/records/query.
// The endpoint does not support filtering on reference-typed attributes;
// relationship filtering happens client-side.
type QueryRequest struct {
	Filter map[string]any `json:"filter,omitempty"`
	Sorts  []Sort         `json:"sorts,omitempty"`
	Limit  int            `json:"limit,omitempty"`
}

// ContainsFilter builds the substring-match filter clause for one attribute.
func ContainsFilter(attr, value string) map[string]any {
	return map[string]any{
		attr: map[string]any{"$contains": value},
	}
}
