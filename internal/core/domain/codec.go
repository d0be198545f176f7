package domain

import (
	"encoding/json"
	"time"
)

// This file adds JSON codecs for the value types whose fields are intentionally
// unexported (ContentSnapshot, ValueSnapshot, FileTreeSnapshot). A persistent store
// needs to round-trip a TaskExecutionRecord through encoding/json without
// reaching into package internals, so each type carries its own MarshalJSON/UnmarshalJSON
// rather than exposing its fields for a store adapter to serialize by hand.

type contentSnapshotJSON struct {
	Kind    ContentKind `json:"kind"`
	Hash    uint64      `json:"hash,omitempty"`
	ModTime time.Time   `json:"modTime,omitempty"`
	HasTime bool        `json:"hasTime,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c ContentSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(contentSnapshotJSON{
		Kind:    c.kind,
		Hash:    c.hash,
		ModTime: c.modTime,
		HasTime: c.hasTime,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ContentSnapshot) UnmarshalJSON(data []byte) error {
	var aux contentSnapshotJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.kind = aux.Kind
	c.hash = aux.Hash
	c.modTime = aux.ModTime
	c.hasTime = aux.HasTime
	return nil
}

type valueSnapshotJSON struct {
	Hash uint64 `json:"hash"`
}

// MarshalJSON implements json.Marshaler.
func (v ValueSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueSnapshotJSON{Hash: v.hash})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *ValueSnapshot) UnmarshalJSON(data []byte) error {
	var aux valueSnapshotJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v.hash = aux.Hash
	return nil
}

type fileTreeSnapshotJSON struct {
	Strategy            CompareStrategy                   `json:"strategy"`
	AssignableToOutputs bool                               `json:"assignableToOutputs,omitempty"`
	Order               []string                           `json:"order,omitempty"`
	Entries             map[string]NormalizedFileSnapshot `json:"entries"`
}

// MarshalJSON implements json.Marshaler. A nil *FileTreeSnapshot marshals to JSON null,
// preserving the null-vs-empty distinction the domain layer relies on.
func (t *FileTreeSnapshot) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(fileTreeSnapshotJSON{
		Strategy:            t.strategy,
		AssignableToOutputs: t.assignableToOutputs,
		Order:               t.order,
		Entries:             t.entries,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *FileTreeSnapshot) UnmarshalJSON(data []byte) error {
	var aux fileTreeSnapshotJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.strategy = aux.Strategy
	t.assignableToOutputs = aux.AssignableToOutputs
	t.order = aux.Order
	t.entries = aux.Entries
	if t.entries == nil {
		t.entries = map[string]NormalizedFileSnapshot{}
	}
	return nil
}
