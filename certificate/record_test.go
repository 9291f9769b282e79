package certificate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func testRecord() Record {
	return Record{
		Title:       "BSc CS",
		Description: "Honours",
		Issuer:      "issuer-1",
		Holder:      "holder-1",
		Metadata:    map[string]any{"gpa": "3.8"},
		Timestamp:   1700000000,
	}
}

func TestCanonicalBytes(t *testing.T) {
	r := testRecord()
	data, err := r.CanonicalBytes()
	require.NoError(t, err)
	require.Equal(t,
		`{"title":"BSc CS","description":"Honours","issuer":"issuer-1","holder":"holder-1","metadata":{"gpa":"3.8"},"timestamp":1700000000}`,
		string(data))
}

func TestFingerprintDeterministic(t *testing.T) {
	r := testRecord()
	fp1, err := r.Fingerprint()
	require.NoError(t, err)
	fp2, err := r.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fp1, fp2)
	require.Len(t, string(fp1), 64)
	require.Equal(t, Fingerprint("ded83f1cdd123393f41bec3d816729691879c3201b75fdad78c4d53d6614482b"), fp1)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := testRecord()
	baseFp, err := base.Fingerprint()
	require.NoError(t, err)

	mutations := map[FieldID]func(r *Record){
		FieldTitle:       func(r *Record) { r.Title = "BSc CS." },
		FieldDescription: func(r *Record) { r.Description = "honours" },
		FieldIssuer:      func(r *Record) { r.Issuer = "issuer-2" },
		FieldHolder:      func(r *Record) { r.Holder = "holder-2" },
		FieldMetadata:    func(r *Record) { r.Metadata = map[string]any{"gpa": "3.9"} },
		FieldTimestamp:   func(r *Record) { r.Timestamp++ },
	}
	require.Len(t, mutations, NumFields)
	for id, mutate := range mutations {
		r := testRecord()
		mutate(&r)
		fp, err := r.Fingerprint()
		require.NoError(t, err)
		require.NotEqual(t, baseFp, fp, "changing %s must change the fingerprint", id)
	}
}

func TestMetadataKeyOrderIrrelevant(t *testing.T) {
	a := testRecord()
	a.Metadata = json.RawMessage(`{"b": 1, "a": {"y": [1, 2.50], "x": true}}`)
	b := testRecord()
	b.Metadata = map[string]any{"a": map[string]any{"x": true, "y": []any{1, 2.5}}, "b": 1}

	fpA, err := a.Fingerprint()
	require.NoError(t, err)
	fpB, err := b.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fpA, fpB)

	text, err := a.FieldText(FieldMetadata)
	require.NoError(t, err)
	require.Equal(t, `{"a":{"x":true,"y":[1,2.5]},"b":1}`, text)
}

func TestNilMetadata(t *testing.T) {
	r := testRecord()
	r.Metadata = nil
	text, err := r.FieldText(FieldMetadata)
	require.NoError(t, err)
	require.Equal(t, "null", text)
}

func TestEncodingError(t *testing.T) {
	r := testRecord()
	r.Metadata = map[string]any{"bad": make(chan int)}
	_, err := r.Fingerprint()
	require.True(t, errors.Is(err, ErrEncoding), "got %v", err)

	_, err = r.Leaves()
	require.True(t, errors.Is(err, ErrEncoding), "got %v", err)

	_, err = HashField(func() {})
	require.True(t, errors.Is(err, ErrEncoding), "got %v", err)
}

func TestLeavesMatchHashField(t *testing.T) {
	r := testRecord()
	leaves, err := r.Leaves()
	require.NoError(t, err)
	require.Len(t, leaves, NumFields)

	values := []any{r.Title, r.Description, r.Issuer, r.Holder, r.Metadata, r.Timestamp}
	for i, leaf := range leaves {
		require.Equal(t, FieldID(i), leaf.Field)
		d, err := HashField(values[i])
		require.NoError(t, err)
		require.Equal(t, d, leaf.Value, "leaf %s", leaf.Field)
	}
}

func TestFieldIDText(t *testing.T) {
	for _, id := range Fields() {
		text, err := id.MarshalText()
		require.NoError(t, err)
		var back FieldID
		require.NoError(t, back.UnmarshalText(text))
		require.Equal(t, id, back)
	}

	_, err := ParseFieldID("issuedAt")
	require.True(t, errors.Is(err, ErrUnknownField))
	_, err = FieldID(9).MarshalText()
	require.True(t, errors.Is(err, ErrUnknownField))

	ids, err := ParseFieldIDs([]string{"timestamp", " title"})
	require.NoError(t, err)
	require.Equal(t, []FieldID{FieldTimestamp, FieldTitle}, ids)

	// FieldID keys a JSON object by name.
	data, err := json.Marshal(map[FieldID]string{FieldTimestamp: "1700000000"})
	require.NoError(t, err)
	require.JSONEq(t, `{"timestamp":"1700000000"}`, string(data))
}

func TestParseDigest(t *testing.T) {
	d := HashText("x")
	back, err := ParseDigest(d.Hex())
	require.NoError(t, err)
	require.Equal(t, d, back)

	_, err = ParseDigest("zz")
	require.Error(t, err)
	_, err = ParseDigest("abcd")
	require.Error(t, err)
}

func TestInvalidUTF8Rejected(t *testing.T) {
	// Without the check both titles encode as U+FFFD and collide.
	for _, title := range []string{"\xff", "\xfe"} {
		r := testRecord()
		r.Title = title
		_, err := r.Fingerprint()
		require.ErrorIs(t, err, ErrEncoding)
		_, err = r.FieldText(FieldTitle)
		require.ErrorIs(t, err, ErrEncoding)
		_, err = r.Leaves()
		require.ErrorIs(t, err, ErrEncoding)
	}

	for name, edit := range map[string]func(r *Record){
		"description": func(r *Record) { r.Description = "Hon\xffours" },
		"issuer":      func(r *Record) { r.Issuer = "\xc3" },
		"holder":      func(r *Record) { r.Holder = "holder-\xfe" },
		"meta value":  func(r *Record) { r.Metadata = map[string]any{"gpa": "\xff"} },
		"meta key":    func(r *Record) { r.Metadata = map[string]any{"\xff": "3.8"} },
		"meta nested": func(r *Record) { r.Metadata = map[string]any{"list": []any{"ok", "\xfe"}} },
		"meta raw":    func(r *Record) { r.Metadata = json.RawMessage("{\"gpa\":\"\xff\"}") },
	} {
		r := testRecord()
		edit(&r)
		_, err := r.Fingerprint()
		require.ErrorIs(t, err, ErrEncoding, name)
		_, err = r.Leaves()
		require.ErrorIs(t, err, ErrEncoding, name)
	}

	_, err := HashField("\xff")
	require.ErrorIs(t, err, ErrEncoding)
	_, err = HashField(map[string]string{"k": "\xfe"})
	require.ErrorIs(t, err, ErrEncoding)

	// Valid multi-byte text is unaffected.
	r := testRecord()
	r.Title = "Licenciatura en Informática ✓"
	_, err = r.Fingerprint()
	require.NoError(t, err)
}
