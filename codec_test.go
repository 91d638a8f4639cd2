package granary

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestHeader(t *testing.T) {
	want := Header{
		Version:   entryVersion,
		Schema:    0xdeadbeef,
		CreatedAt: fixedNowFunc(),
		Entries:   42,
	}

	var buf bytes.Buffer
	if err := writeHeader(&buf, want); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	if buf.Len() != headerSize {
		t.Fatalf("Expected %d header bytes, got %d", headerSize, buf.Len())
	}

	got, err := readHeader(&buf)
	if err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}
	if got.Version != want.Version || got.Schema != want.Schema ||
		!got.CreatedAt.Equal(want.CreatedAt) || got.Entries != want.Entries {
		t.Fatalf("Header mismatch:\nExpected: %+v\nActual: %+v", want, got)
	}
}

func TestHeaderRejects(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"BadMagic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"FutureVersion", func(b []byte) []byte { b[4] = entryVersion + 1; return b }},
		{"Short", func(b []byte) []byte { return b[:10] }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeHeader(&buf, Header{Version: entryVersion, CreatedAt: fixedNowFunc()}); err != nil {
				t.Fatalf("Failed to write header: %v", err)
			}
			if _, err := readHeader(bytes.NewReader(tc.mutate(buf.Bytes()))); err == nil {
				t.Fatalf("Expected header to be rejected")
			}
		})
	}
}

func TestEntryRoundTrip(t *testing.T) {
	type pair struct {
		Left  string
		Right []int64
	}
	payload := map[uint64]pair{
		3: {Left: "c", Right: []int64{1, 2}},
		1: {Left: "a"},
	}

	var first, second bytes.Buffer
	h := Header{Version: entryVersion, Schema: 7, CreatedAt: fixedNowFunc(), Entries: uint64(len(payload))}
	if err := encodeEntry(&first, h, zstd.SpeedDefault, payload); err != nil {
		t.Fatalf("Failed to encode entry: %v", err)
	}
	if err := encodeEntry(&second, h, zstd.SpeedDefault, payload); err != nil {
		t.Fatalf("Failed to encode entry: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatalf("Expected equal maps to encode to equal bytes")
	}

	var out map[uint64]pair
	got, err := decodeEntry(bytes.NewReader(first.Bytes()), &out, 7)
	if err != nil {
		t.Fatalf("Failed to decode entry: %v", err)
	}
	if got.Entries != 2 || out[3].Left != "c" || !reflect.DeepEqual(out[3].Right, []int64{1, 2}) {
		t.Fatalf("Unexpected decoded entry: %+v %+v", got, out)
	}

	_, err = decodeEntry(bytes.NewReader(first.Bytes()), &out, 8)
	if !errors.Is(err, errStaleSchema) {
		t.Fatalf("Expected stale schema error, got %v", err)
	}
}

func TestSchemaTag(t *testing.T) {
	cache, _, _ := setupTestCache(t, "schema-tag")

	type v1 struct {
		Count int
	}
	type v2 struct {
		Count int
		Extra string
	}

	intT := reflect.TypeFor[int]()
	base := cache.SchemaTag("attr", intT, reflect.TypeFor[v1]())

	if again := cache.SchemaTag("attr", intT, reflect.TypeFor[v1]()); again != base {
		t.Fatalf("Expected schema tag to be stable")
	}
	if other := cache.SchemaTag("other", intT, reflect.TypeFor[v1]()); other == base {
		t.Fatalf("Expected schema tag to depend on the attribute name")
	}
	if changed := cache.SchemaTag("attr", intT, reflect.TypeFor[v2]()); changed == base {
		t.Fatalf("Expected schema tag to depend on the value structure")
	}
	if key := cache.SchemaTag("attr", reflect.TypeFor[string](), reflect.TypeFor[v1]()); key == base {
		t.Fatalf("Expected schema tag to depend on the key type")
	}
}

func TestDescribeType(t *testing.T) {
	type node struct {
		Name     string
		Children []*node
		hidden   int
	}

	desc := describeType(reflect.TypeFor[map[string]node]())
	if !strings.Contains(desc, "Children") || !strings.Contains(desc, "<recursive>") {
		t.Fatalf("Unexpected description: %s", desc)
	}
	if strings.Contains(desc, "hidden") {
		t.Fatalf("Expected unexported fields to be ignored: %s", desc)
	}
}

func TestDeepCopy(t *testing.T) {
	orig := map[string][]int{"a": {1, 2}}
	cp, err := deepCopy(orig)
	if err != nil {
		t.Fatalf("Failed to copy: %v", err)
	}
	cp["a"][0] = 99
	if orig["a"][0] != 1 {
		t.Fatalf("Expected copy to share no memory with the original")
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("disk full")
	err := newError(KindIO, "attr", cause)
	if !errors.Is(err, ErrIO) || !errors.Is(err, cause) {
		t.Fatalf("Expected error to match both its kind and cause: %v", err)
	}
	if got := err.Error(); got != "io [attr]: disk full" {
		t.Fatalf("Unexpected message: %q", got)
	}

	// Wrapping an *Error keeps the original kind.
	if again := newError(KindSource, "other", err); again != err {
		t.Fatalf("Expected an existing *Error to be returned unchanged")
	}

	sv := SchemaViolation("attr", "field %q", "x")
	if !errors.Is(sv, ErrSchemaViolation) {
		t.Fatalf("Expected a schema violation, got %v", sv)
	}
}
