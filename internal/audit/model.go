package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/amparo-care/platform/internal/shared/types"
)

// ActorType defines the type of actor behind an audited action.
type ActorType string

const (
	ActorTypePatient   ActorType = "patient"
	ActorTypeCaregiver ActorType = "caregiver"
	ActorTypeAdmin     ActorType = "admin"
	ActorTypeSystem    ActorType = "system"
)

// Entry is an immutable audit log entry. Entries form a hash chain:
// each entry's hash covers its own fields plus the previous entry's
// hash, so rewriting history invalidates every later entry.
type Entry struct {
	ID        types.ID  `json:"id"`
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`
	PrevHash  string    `json:"prev_hash,omitempty"`

	ActorType ActorType `json:"actor_type"`
	ActorID   types.ID  `json:"actor_id,omitempty"`

	Action       string    `json:"action"`        // e.g. "relationship.created"
	ResourceType string    `json:"resource_type"` // e.g. "relationship"
	ResourceID   *types.ID `json:"resource_id,omitempty"`

	Changes map[string]any `json:"changes,omitempty"`
}

// NewEntry creates a hash-chained audit entry.
func NewEntry(actorType ActorType, actorID types.ID, action, resourceType string, resourceID *types.ID, changes map[string]any, prevHash string) *Entry {
	e := &Entry{
		ID: types.NewID(),
		// Microsecond precision survives the PostgreSQL round trip, so
		// hashes verify after reload.
		Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
		PrevHash:     prevHash,
		ActorType:    actorType,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Changes:      changes,
	}
	e.Hash = e.computeHash()
	return e
}

// computeHash hashes the entry's identity fields with canonical JSON so
// map key order cannot change the result.
func (e *Entry) computeHash() string {
	data := map[string]any{
		"id":            e.ID,
		"timestamp":     e.Timestamp.UTC().Format(time.RFC3339Nano),
		"prev_hash":     e.PrevHash,
		"actor_type":    e.ActorType,
		"actor_id":      e.ActorID,
		"action":        e.Action,
		"resource_type": e.ResourceType,
	}
	if e.ResourceID != nil {
		data["resource_id"] = e.ResourceID
	}
	if len(e.Changes) > 0 {
		data["changes"] = e.Changes
	}

	jsonData, _ := canonicalJSON(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// VerifyHash verifies the entry's own hash.
func (e *Entry) VerifyHash() bool {
	return e.Hash == e.computeHash()
}

// ListFilter defines filters for listing audit entries.
type ListFilter struct {
	ActorID      *types.ID  `json:"actor_id,omitempty"`
	Action       string     `json:"action,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceID   *types.ID  `json:"resource_id,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// canonicalJSON produces JSON with sorted map keys. Go maps iterate in
// random order and JSONB reorders keys, so hashing needs a canonical
// form.
func canonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return canonicalMarshal(parsed)
}

func canonicalMarshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, _ := json.Marshal(k)
			buf.Write(keyBytes)
			buf.WriteByte(':')
			valBytes, err := canonicalMarshal(val[k])
			if err != nil {
				return nil, err
			}
			buf.Write(valBytes)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil

	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			itemBytes, err := canonicalMarshal(item)
			if err != nil {
				return nil, err
			}
			buf.Write(itemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil

	default:
		return json.Marshal(val)
	}
}
