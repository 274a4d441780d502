package locate

import "testing"

func TestLocate_ExactMatch(t *testing.T) {
	text := "Brutto: 1.877,82 € Rechnung"
	quote := "Brutto: 1.877,82 €"
	m, ok := Locate(text, quote)
	if !ok {
		t.Fatalf("expected a match")
	}
	if m.Start != 0 || m.End != len(quote) {
		t.Fatalf("unexpected span: %+v", m)
	}
	if text[m.Start:m.End] != m.Matched {
		t.Fatalf("Matched must equal text[start:end]")
	}
}

func TestLocate_CaseInsensitive(t *testing.T) {
	text := "MALERMEISTER SCHMIDT GMBH"
	quote := "Malermeister Schmidt GmbH"
	m, ok := Locate(text, quote)
	if !ok {
		t.Fatalf("expected a case-insensitive match")
	}
	if text[m.Start:m.End] != m.Matched {
		t.Fatalf("Matched must equal text[start:end]")
	}
}

func TestLocate_WhitespaceNormalized_S3(t *testing.T) {
	text := "Firma: Malermeister\n  Schmidt GmbH\nAdresse: ..."
	quote := "Malermeister Schmidt GmbH"
	m, ok := Locate(text, quote)
	if !ok {
		t.Fatalf("expected a whitespace-normalized match")
	}
	got := text[m.Start:m.End]
	want := "Malermeister\n  Schmidt GmbH"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLocate_Fuzzy_S4(t *testing.T) {
	text := "Rechnung von Ma1ermeister Schmidt GmbH vom 01.01.2024"
	quote := "Malermeister Schmidt GmbH"
	m, ok := Locate(text, quote)
	if !ok {
		t.Fatalf("expected a fuzzy match")
	}
	got := text[m.Start:m.End]
	if got != "Ma1ermeister Schmidt GmbH" {
		t.Fatalf("got %q", got)
	}
}

func TestLocate_EmptyQuoteReturnsNone(t *testing.T) {
	_, ok := Locate("some text", "")
	if ok {
		t.Fatalf("expected no match for empty quote")
	}
}

func TestLocate_FuzzyNotInvokedBelowFiveChars(t *testing.T) {
	// "abc1" differs from "abcd" by one char but is only 4 chars; fuzzy
	// tier must not kick in, so no tier should match it.
	_, ok := Locate("xxx abc1 yyy", "abcd")
	if ok {
		t.Fatalf("expected no match: fuzzy tier must not run for quotes under 5 chars")
	}
}

func TestLocate_RoundTrip_ExactSliceIsItsOwnMatch(t *testing.T) {
	fullText := "Eingangsrechnung Nr. 4711 vom 03.05.2024 ueber 1.234,56 EUR fuer Leistungen."
	a, b := 17, 26
	quote := fullText[a:b]
	m, ok := Locate(fullText, quote)
	if !ok {
		t.Fatalf("expected a match for an exact substring")
	}
	if m.Start != a || m.End != b {
		t.Fatalf("expected span (%d,%d), got (%d,%d)", a, b, m.Start, m.End)
	}
}

func TestLocate_NoMatch(t *testing.T) {
	_, ok := Locate("completely unrelated text here", "something that does not appear anywhere near")
	if ok {
		t.Fatalf("expected no match")
	}
}
