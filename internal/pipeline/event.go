// Package pipeline implements the ingestion-to-score pipeline: the event
// processor, the inactivity decay sweep and the full-history replay.
package pipeline

import (
	"strings"
	"time"
)

// Metadata is the open key/value bag attached to every event. Resolution
// logic reads only the recognized keys below; everything else is carried
// through untouched.
type Metadata map[string]any

// Recognized metadata keys.
const (
	MetaKeyEmail      = "email"
	MetaKeyExternalID = "external_id"
	MetaKeyLeadID     = "lead_id"
	MetaKeyName       = "name"
	MetaKeyCompany    = "company"
)

// Email returns the lead email address, if present.
func (m Metadata) Email() string {
	return m.str(MetaKeyEmail)
}

// ExternalID returns the alternate lead identity key. Batch producers send
// it as "lead_id", API producers as "external_id".
func (m Metadata) ExternalID() string {
	if v := m.str(MetaKeyExternalID); v != "" {
		return v
	}
	return m.str(MetaKeyLeadID)
}

// Name returns the lead name, if present.
func (m Metadata) Name() string {
	return m.str(MetaKeyName)
}

// Company returns the lead company, if present.
func (m Metadata) Company() string {
	return m.str(MetaKeyCompany)
}

func (m Metadata) str(key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Event is the normalized event shape handed to the queue by producers and
// delivered at-least-once to the processor.
type Event struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  Metadata  `json:"metadata"`
}
