package ocr

import "testing"

const sampleHOCR = `<div class='ocr_page' id='page_1' title='bbox 0 0 1000 1400'>
 <div class='ocr_carea' id='block_1_1'>
  <p class='ocr_par'>
   <span class='ocr_line' id='line_1_1' title="bbox 10 20 300 40">
    <span class='ocrx_word' id='word_1_1_1' title='bbox 10 20 90 40; x_wconf 95'>Rechnung</span>
    <span class='ocrx_word' id='word_1_1_2' title='bbox 100 20 180 40; x_wconf 91'>Nr.</span>
   </span>
   <span class='ocr_line' id='line_1_2' title="bbox 10 50 300 70">
    <span class='ocrx_word' id='word_1_2_1' title='bbox 10 50 200 70; x_wconf 88'>Brutto:</span>
   </span>
  </p>
 </div>
</div>`

func TestParseHOCR_ExtractsWordsAndPageSize(t *testing.T) {
	size, words := parseHOCR(sampleHOCR)

	if size.Width != 1000 || size.Height != 1400 {
		t.Fatalf("expected page size 1000x1400, got %dx%d", size.Width, size.Height)
	}
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d: %+v", len(words), words)
	}
	if words[0].Text != "Rechnung" || words[0].Conf != 95 {
		t.Fatalf("unexpected first word: %+v", words[0])
	}
	if words[2].LineID == words[0].LineID {
		t.Fatalf("expected word 3 to be on a different line than word 1")
	}
}

func TestAssemblePage_CharOffsetsAreExactAndMonotonic(t *testing.T) {
	_, words := parseHOCR(sampleHOCR)
	text, out := assemblePage(words, 1.0, 1.0, 0)

	if len(out) != 3 {
		t.Fatalf("expected 3 assembled words, got %d", len(out))
	}

	for _, w := range out {
		if text[w.CharStart:w.CharEnd] != w.Text {
			t.Fatalf("text[%d:%d] = %q, want %q", w.CharStart, w.CharEnd, text[w.CharStart:w.CharEnd], w.Text)
		}
	}

	for i := 1; i < len(out); i++ {
		if out[i-1].CharEnd > out[i].CharStart {
			t.Fatalf("words must be non-overlapping: word %d ends at %d, word %d starts at %d", i-1, out[i-1].CharEnd, i, out[i].CharStart)
		}
	}
}

func TestAssemblePage_OffsetShiftsAllWords(t *testing.T) {
	_, words := parseHOCR(sampleHOCR)
	_, outNoOffset := assemblePage(words, 1.0, 1.0, 0)
	_, outWithOffset := assemblePage(words, 1.0, 1.0, 822)

	for i := range outNoOffset {
		if outWithOffset[i].CharStart != outNoOffset[i].CharStart+822 {
			t.Fatalf("expected char_start shifted by offset, got %d vs %d", outWithOffset[i].CharStart, outNoOffset[i].CharStart)
		}
	}
}

func TestMeanConfidence(t *testing.T) {
	_, words := parseHOCR(sampleHOCR)
	_, out := assemblePage(words, 1.0, 1.0, 0)
	got := meanConfidence(out)
	want := roundTo2((95.0 + 91.0 + 88.0) / 3.0)
	if got != want {
		t.Fatalf("meanConfidence = %v, want %v", got, want)
	}
}

func TestMeanConfidence_NoWords(t *testing.T) {
	if got := meanConfidence(nil); got != 0 {
		t.Fatalf("meanConfidence(nil) = %v, want 0", got)
	}
}
