package codec

import (
	"strings"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"", NameJSON, NameMsgpack, NameCBOR} {
		c, err := ByName[map[string]string](name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		in := map[string]string{"1": "Spain", "2": "Brazil"}
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%q encode: %v", name, err)
		}
		out, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%q decode: %v", name, err)
		}
		if out["1"] != "Spain" || out["2"] != "Brazil" || len(out) != 2 {
			t.Fatalf("%q: got %v", name, out)
		}
	}
	if _, err := ByName[string]("xml"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestByNameString(t *testing.T) {
	c, err := ByName[string](NameString)
	if err != nil {
		t.Fatalf("ByName(string): %v", err)
	}
	b, err := c.Encode("Brazil")
	if err != nil || string(b) != "Brazil" {
		t.Fatalf("Encode: b=%q err=%v", b, err)
	}
	if v, err := c.Decode(b); err != nil || v != "Brazil" {
		t.Fatalf("Decode: v=%q err=%v", v, err)
	}
	if _, err := ByName[map[string]string](NameString); err == nil {
		t.Fatalf("expected error for non-string values")
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	if _, err := c.Decode([]byte("Spain")); err == nil {
		t.Fatalf("expected size error")
	}
	v, err := c.Decode([]byte("Peru"))
	if err != nil || v != "Peru" {
		t.Fatalf("Decode at limit: v=%q err=%v", v, err)
	}
	unlimited := Limit[string]{Inner: String{}}
	if v, err := unlimited.Decode([]byte(strings.Repeat("x", 1024))); err != nil || len(v) != 1024 {
		t.Fatalf("unlimited decode failed: len=%d err=%v", len(v), err)
	}
}

func TestProtobufStructDocument(t *testing.T) {
	c := NewProtobuf(func() *structpb.Struct { return &structpb.Struct{} })
	doc, err := structpb.NewStruct(map[string]any{
		"response": []any{map[string]any{"player": map[string]any{"id": 276.0, "nationality": "Brazil"}}},
	})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	b, err := c.Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !proto.Equal(doc, got) {
		t.Fatalf("document changed after round trip: %v", got)
	}

	var empty Protobuf[*structpb.Struct]
	if _, err := empty.Decode(b); err == nil {
		t.Fatalf("expected error from codec without constructor")
	}
}
