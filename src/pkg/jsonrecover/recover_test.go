package jsonrecover

import "testing"

func TestParse_WholeBody(t *testing.T) {
	v, ok := Parse(`{"a": 1, "b": "x"}`)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if v["a"].(float64) != 1 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestParse_FencedBlock(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"a\": 2}\n```\nThanks."
	v, ok := Parse(raw)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if v["a"].(float64) != 2 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestParse_EmbeddedBraceSpan(t *testing.T) {
	raw := "The model says: {\"a\": 3} -- end of response"
	v, ok := Parse(raw)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if v["a"].(float64) != 3 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestParse_Unparseable(t *testing.T) {
	_, ok := Parse("not json at all, no braces here")
	if ok {
		t.Fatalf("expected parse to fail")
	}
}

func TestParse_IsIdempotentOnValidJSON(t *testing.T) {
	raw := `{"a": 1, "nested": {"b": 2}}`
	v1, ok1 := Parse(raw)
	v2, ok2 := Parse(raw)
	if !ok1 || !ok2 {
		t.Fatalf("expected both parses to succeed")
	}
	if v1["a"] != v2["a"] {
		t.Fatalf("expected idempotent parse results")
	}
}

func TestParse_TotalOnEmptyInput(t *testing.T) {
	_, ok := Parse("")
	if ok {
		t.Fatalf("expected empty input to fail to parse, not panic")
	}
}
