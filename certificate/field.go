package certificate

import (
	"fmt"
	"strings"
)

// FieldID identifies one of the six fields of a certificate record. The
// numeric value is the field's canonical position, which is also the index of
// its leaf in the record's Merkle tree.
type FieldID int

const (
	FieldTitle FieldID = iota
	FieldDescription
	FieldIssuer
	FieldHolder
	FieldMetadata
	FieldTimestamp
)

// NumFields is the number of fields (and Merkle leaves) of a record.
const NumFields = 6

var fieldNames = [NumFields]string{
	"title",
	"description",
	"issuer",
	"holder",
	"metadata",
	"timestamp",
}

// Fields returns all field identifiers in canonical order.
func Fields() []FieldID {
	return []FieldID{
		FieldTitle,
		FieldDescription,
		FieldIssuer,
		FieldHolder,
		FieldMetadata,
		FieldTimestamp,
	}
}

// Valid reports whether f is one of the six known fields.
func (f FieldID) Valid() bool {
	return f >= FieldTitle && f <= FieldTimestamp
}

// Index returns the canonical position of the field.
func (f FieldID) Index() int {
	return int(f)
}

func (f FieldID) String() string {
	if !f.Valid() {
		return fmt.Sprintf("FieldID(%d)", int(f))
	}
	return fieldNames[f]
}

// MarshalText encodes the field by name so it can be used as a JSON object key.
func (f FieldID) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, int(f))
	}
	return []byte(fieldNames[f]), nil
}

// UnmarshalText decodes a field name.
func (f *FieldID) UnmarshalText(text []byte) error {
	id, err := ParseFieldID(string(text))
	if err != nil {
		return err
	}
	*f = id
	return nil
}

// ParseFieldID returns the field identified by name.
func ParseFieldID(name string) (FieldID, error) {
	for i, n := range fieldNames {
		if n == name {
			return FieldID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// ParseFieldIDs parses a list of field names, as received from a holder
// choosing which fields to disclose. Surrounding whitespace is ignored.
func ParseFieldIDs(names []string) ([]FieldID, error) {
	ids := make([]FieldID, 0, len(names))
	for _, name := range names {
		id, err := ParseFieldID(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
