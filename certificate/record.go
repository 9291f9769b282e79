// Package certificate defines the certificate record and its canonical
// encoding. The fingerprint of a record, the text of each of its fields and
// the Merkle leaves built from them are all derived here, so every other
// component hashes exactly the same bytes.
package certificate

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/gowebpki/jcs"
)

var (
	// ErrEncoding is returned when a record or value cannot be serialized
	// canonically. It is not retryable: the input has to be fixed.
	ErrEncoding = errors.New("certificate encoding failed")
	// ErrUnknownField is returned for a field name outside the six known fields.
	ErrUnknownField = errors.New("unknown certificate field")
)

// Record is a certificate as issued to a holder. The engine never stores it;
// any change to any field yields a different fingerprint.
type Record struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Issuer      string `json:"issuer"`
	Holder      string `json:"holder"`
	// Metadata is any JSON-marshalable value. It is hashed in its RFC 8785
	// canonical form, so key order and whitespace do not matter.
	Metadata  any   `json:"metadata"`
	Timestamp int64 `json:"timestamp"`
}

// Fingerprint is the hex encoded SHA-256 digest of a record's canonical form.
type Fingerprint string

// Digest is a SHA-256 digest.
type Digest [sha256.Size]byte

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest decodes a 64 character hex digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	if len(b) != len(d) {
		return d, fmt.Errorf("invalid digest length %d", len(b))
	}
	copy(d[:], b)
	return d, nil
}

// HashText returns SHA-256(s).
func HashText(s string) Digest {
	return sha256.Sum256([]byte(s))
}

// Leaf is the Merkle leaf of a single record field.
type Leaf struct {
	Field FieldID
	Value Digest
}

// Fingerprint serializes the record as a JSON object whose keys follow the
// canonical field order and returns the hex SHA-256 of that text.
func (r *Record) Fingerprint() (Fingerprint, error) {
	data, err := r.CanonicalBytes()
	if err != nil {
		return "", err
	}
	return Fingerprint(HashText(string(data)).Hex()), nil
}

// CanonicalBytes returns the serialization the fingerprint is computed over:
//
//	{"title":..,"description":..,"issuer":..,"holder":..,"metadata":..,"timestamp":..}
func (r *Record) CanonicalBytes() ([]byte, error) {
	meta, err := CanonicalJSON(r.Metadata)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, id := range Fields() {
		if id != FieldTitle {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, fieldNames[id]); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		switch id {
		case FieldMetadata:
			buf.Write(meta)
		case FieldTimestamp:
			buf.WriteString(strconv.FormatInt(r.Timestamp, 10))
		default:
			if err := writeJSONString(&buf, r.text(id)); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FieldText returns the text a field is hashed from: string fields verbatim,
// the timestamp in decimal and the metadata as canonical JSON.
func (r *Record) FieldText(id FieldID) (string, error) {
	switch id {
	case FieldMetadata:
		meta, err := CanonicalJSON(r.Metadata)
		if err != nil {
			return "", err
		}
		return string(meta), nil
	case FieldTimestamp:
		return strconv.FormatInt(r.Timestamp, 10), nil
	case FieldTitle, FieldDescription, FieldIssuer, FieldHolder:
		text := r.text(id)
		if !utf8.ValidString(text) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrEncoding, id)
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownField, int(id))
}

// Leaves returns the six Merkle leaves of the record in canonical order.
func (r *Record) Leaves() ([]Leaf, error) {
	leaves := make([]Leaf, 0, NumFields)
	for _, id := range Fields() {
		text, err := r.FieldText(id)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, Leaf{Field: id, Value: HashText(text)})
	}
	return leaves, nil
}

func (r *Record) text(id FieldID) string {
	switch id {
	case FieldTitle:
		return r.Title
	case FieldDescription:
		return r.Description
	case FieldIssuer:
		return r.Issuer
	case FieldHolder:
		return r.Holder
	}
	return ""
}

// HashField hashes a single value with the same rules used for record fields:
// strings verbatim, integers in decimal and anything else as canonical JSON.
func HashField(value any) (Digest, error) {
	switch v := value.(type) {
	case string:
		if !utf8.ValidString(v) {
			return Digest{}, fmt.Errorf("%w: value is not valid UTF-8", ErrEncoding)
		}
		return HashText(v), nil
	case int:
		return HashText(strconv.FormatInt(int64(v), 10)), nil
	case int32:
		return HashText(strconv.FormatInt(int64(v), 10)), nil
	case int64:
		return HashText(strconv.FormatInt(v, 10)), nil
	case uint32:
		return HashText(strconv.FormatUint(uint64(v), 10)), nil
	case uint64:
		return HashText(strconv.FormatUint(v, 10)), nil
	}
	data, err := CanonicalJSON(value)
	if err != nil {
		return Digest{}, err
	}
	return HashText(string(data)), nil
}

// CanonicalJSON marshals v and rewrites it in RFC 8785 canonical form: object
// keys sorted, no insignificant whitespace, numbers in their shortest form.
func CanonicalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	// json.Marshal replaces invalid UTF-8 with U+FFFD, which would make
	// distinct values hash alike.
	if !utf8.Valid(raw) || !validUTF8(reflect.ValueOf(v)) {
		return nil, fmt.Errorf("%w: metadata is not valid UTF-8", ErrEncoding)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: canonicalize: %v", ErrEncoding, err)
	}
	return out, nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string is not valid UTF-8", ErrEncoding)
	}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// validUTF8 reports whether every string reachable from v, map keys included,
// is valid UTF-8. It must only be called on values json.Marshal accepted, so
// cycles have already been rejected.
func validUTF8(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return utf8.ValidString(v.String())
	case reflect.Interface, reflect.Pointer:
		return v.IsNil() || validUTF8(v.Elem())
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if !validUTF8(iter.Key()) || !validUTF8(iter.Value()) {
				return false
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			// []byte is base64 encoded; json.RawMessage is covered by the
			// check on the marshaled output.
			return true
		}
		for i := 0; i < v.Len(); i++ {
			if !validUTF8(v.Index(i)) {
				return false
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() && !validUTF8(v.Field(i)) {
				return false
			}
		}
	}
	return true
}
