// Package participant derives the candidate CRM lookup targets from a
// conversation's messages.
package participant

import (
	"sort"
	"strings"
)

// Address is one address + display-name pair from a message header.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is the participant-relevant slice of one conversation message, in
// conversation order.
type Message struct {
	From Address   `json:"from"`
	To   []Address `json:"to,omitempty"`
	CC   []Address `json:"cc,omitempty"`
	BCC  []Address `json:"bcc,omitempty"`
}

// Participant is one candidate contact for CRM lookup.
type Participant struct {
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	OriginalSender bool   `json:"original_sender"`
}

// Extract builds the deduplicated participant list of a conversation:
// every from/to/cc/bcc address across the ordered messages, first occurrence
// fixing the display name, the first message's sender marked as the original
// sender, and addresses on internalDomain excluded so internal-to-internal
// mail never becomes a lookup target. The result is ordered original sender
// first, then alphabetically by display name.
func Extract(messages []Message, internalDomain string) []Participant {
	seen := make(map[string]*Participant)
	var out []*Participant

	add := func(addr Address) {
		email := strings.ToLower(strings.TrimSpace(addr.Email))
		if email == "" || isInternal(email, internalDomain) {
			return
		}
		if _, ok := seen[email]; ok {
			return
		}
		name := strings.TrimSpace(addr.Name)
		if name == "" {
			name = email
		}
		p := &Participant{Email: email, DisplayName: name}
		seen[email] = p
		out = append(out, p)
	}

	for _, msg := range messages {
		add(msg.From)
		for _, a := range msg.To {
			add(a)
		}
		for _, a := range msg.CC {
			add(a)
		}
		for _, a := range msg.BCC {
			add(a)
		}
	}

	if len(messages) > 0 {
		sender := strings.ToLower(strings.TrimSpace(messages[0].From.Email))
		if p, ok := seen[sender]; ok {
			p.OriginalSender = true
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OriginalSender != out[j].OriginalSender {
			return out[i].OriginalSender
		}
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})

	result := make([]Participant, len(out))
	for i, p := range out {
		result[i] = *p
	}
	return result
}

func isInternal(email, domain string) bool {
	if domain == "" {
		return false
	}
	return strings.HasSuffix(email, "@"+strings.ToLower(domain))
}

// Target picks the email the sidebar should resolve: the original sender when
// present, otherwise the first participant. Returns "" for an empty list.
func Target(participants []Participant) string {
	for _, p := range participants {
		if p.OriginalSender {
			return p.Email
		}
	}
	if len(participants) > 0 {
		return participants[0].Email
	}
	return ""
}
