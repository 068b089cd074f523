package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNewDocumentWellFormed(t *testing.T) {
	d := NewDocument("landing")

	if d.Schema != SchemaVersion {
		t.Errorf("schema = %d, want %d", d.Schema, SchemaVersion)
	}
	if d.Root.Kind != KindDocument {
		t.Errorf("root kind = %s", d.Root.Kind)
	}
	if len(d.Root.Children) != 1 || d.Root.Children[0].Kind != KindPage {
		t.Fatalf("root children = %+v, want one page", d.Root.Children)
	}
	if d.Root.ID == d.Root.Children[0].ID {
		t.Error("root and page share an id")
	}
	if d.Seed == 0 {
		t.Error("seed not advanced past the minted ids")
	}
	if d.Viewport.Zoom != 1 {
		t.Errorf("viewport = %+v", d.Viewport)
	}
	if violations := ValidateDocument(d); len(violations) != 0 {
		t.Errorf("fresh document has violations: %v", violations)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	d := NewDocument("round-trip")
	d.Collapsed = IDSet{}.Add(d.Root.Children[0].ID)
	d.UpdatedAt = time.Date(2025, time.June, 2, 10, 30, 0, 0, time.UTC)

	data, err := EncodeDocument(d)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(d, got) {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", d, got)
	}
}

func TestDecodeSchemaChecks(t *testing.T) {
	t.Run("Missing Schema", func(t *testing.T) {
		_, err := DecodeDocument([]byte(`{"root":{"id":"x","kind":"document"}}`))
		if !errors.Is(err, ErrSchemaVersion) {
			t.Errorf("err = %v, want ErrSchemaVersion", err)
		}
	})

	t.Run("Newer Schema", func(t *testing.T) {
		_, err := DecodeDocument([]byte(`{"schema":99,"root":{"id":"x","kind":"document"}}`))
		if !errors.Is(err, ErrSchemaVersion) {
			t.Errorf("err = %v, want ErrSchemaVersion", err)
		}
	})

	t.Run("Older Schema", func(t *testing.T) {
		_, err := DecodeDocument([]byte(`{"schema":1,"root":{"id":"x","kind":"document"}}`))
		if !errors.Is(err, ErrSchemaVersion) {
			t.Errorf("err = %v, want ErrSchemaVersion", err)
		}
	})

	t.Run("Probe", func(t *testing.T) {
		v, err := ProbeSchema([]byte(`{"schema":1}`))
		if err != nil || v != 1 {
			t.Errorf("ProbeSchema = %d, %v", v, err)
		}
	})
}

func TestIDSetMarshalSorted(t *testing.T) {
	s := IDSet{}.Add("zzz").Add("aaa").Add("mmm")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `["aaa","mmm","zzz"]`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}

	var back IDSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Has("mmm") || len(back) != 3 {
		t.Errorf("unmarshal = %+v", back)
	}
}

func TestIDSetCopyOnWrite(t *testing.T) {
	base := IDSet{}.Add("a")

	added := base.Add("b")
	if base.Has("b") {
		t.Error("Add mutated the receiver")
	}
	if !added.Has("a") || !added.Has("b") {
		t.Errorf("added = %+v", added)
	}

	removed := added.Remove("a")
	if !added.Has("a") {
		t.Error("Remove mutated the receiver")
	}
	if removed.Has("a") {
		t.Errorf("removed = %+v", removed)
	}

	toggled := base.Toggle("a")
	if toggled.Has("a") {
		t.Errorf("toggle off failed: %+v", toggled)
	}
	if !base.Toggle("x").Has("x") {
		t.Error("toggle on failed")
	}

	// No-op paths may return the receiver itself.
	same := base.Add("a")
	if !reflect.DeepEqual(same, base) {
		t.Errorf("Add existing changed the set: %+v", same)
	}
}

func TestDocumentEncodingShape(t *testing.T) {
	// The wire format keeps the envelope fields the adapters rely on.
	d := NewDocument("shape")
	data, err := EncodeDocument(d)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, field := range []string{`"schema"`, `"root"`, `"viewport"`, `"seed"`, `"updated_at"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("encoding missing %s:\n%s", field, data)
		}
	}
}
