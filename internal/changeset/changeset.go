// Package changeset describes atomic batches of guarded field updates
// and record insertions. A batch is built by the caller and handed to a
// store, which applies every operation as a single unit or none at all.
package changeset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tavisham/lobbygate/internal/model"
)

// Kind identifies the record type an operation targets. Stores map a
// kind to their own key namespace.
type Kind string

const (
	KindAccount Kind = "account"
	KindGrant   Kind = "grant"
	KindPromo   Kind = "promo"
	KindProfile Kind = "profile"
)

// Update writes one field of an existing record. Expect is the value
// the field must currently hold; if the live value differs the whole
// batch fails with model.ErrConflict.
type Update struct {
	Kind   Kind
	Key    string
	Field  string
	Value  any
	Expect any
}

// Insert adds a fully-populated record.
type Insert struct {
	Kind   Kind
	Key    string
	Record any
}

// Changeset is an ordered batch of operations against a single store.
type Changeset struct {
	Updates []Update
	Inserts []Insert
}

// New creates an empty changeset.
func New() *Changeset {
	return &Changeset{}
}

// Update appends a guarded field update.
func (c *Changeset) Update(kind Kind, key, field string, value, expect any) *Changeset {
	c.Updates = append(c.Updates, Update{Kind: kind, Key: key, Field: field, Value: value, Expect: expect})
	return c
}

// Insert appends a record insertion.
func (c *Changeset) Insert(kind Kind, key string, record any) *Changeset {
	c.Inserts = append(c.Inserts, Insert{Kind: kind, Key: key, Record: record})
	return c
}

// Empty reports whether the batch contains no operations.
func (c *Changeset) Empty() bool {
	return len(c.Updates) == 0 && len(c.Inserts) == 0
}

// Keys returns the distinct (kind, key) pairs touched by updates, in
// first-seen order. Stores use this to know what to guard.
func (c *Changeset) Keys() []Update {
	seen := make(map[string]bool)
	var keys []Update
	for _, u := range c.Updates {
		id := string(u.Kind) + "\x00" + u.Key
		if !seen[id] {
			seen[id] = true
			keys = append(keys, Update{Kind: u.Kind, Key: u.Key})
		}
	}
	return keys
}

// Doc is a record flattened to its JSON field map. Stores stage updates
// against docs so that field names line up with the persisted form.
type Doc map[string]any

// Encode flattens a record into a Doc.
func Encode(record any) (Doc, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Decode rebuilds a concrete record from a Doc.
func Decode(doc Doc, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// ApplyUpdate verifies the guard against the doc and stages the new
// value. Returns model.ErrConflict when the live value no longer
// matches Expect.
func ApplyUpdate(doc Doc, u Update) error {
	live, ok := doc[u.Field]
	if !ok {
		return fmt.Errorf("%w: %s.%s: no such field", model.ErrConflict, u.Kind, u.Field)
	}
	if !ValueEqual(live, u.Expect) {
		return fmt.Errorf("%w: %s.%s", model.ErrConflict, u.Kind, u.Field)
	}
	doc[u.Field] = u.Value
	return nil
}

// ValueEqual compares two field values after JSON normalization, so an
// int64 expectation matches the float64 a decoded document carries.
func ValueEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
