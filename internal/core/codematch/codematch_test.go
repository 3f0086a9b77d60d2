package codematch

import (
	"math"
	"testing"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMatchCodesLevels(t *testing.T) {
	cases := []struct {
		a, b       string
		level      domain.CodeLevel
		confidence float64
	}{
		{a: "73261990", b: "73261990", level: domain.LevelExact, confidence: 0.99},
		{a: "7326.19.90", b: "73261990", level: domain.LevelExact, confidence: 0.99},
		{a: "73261990", b: "73261910", level: domain.LevelSubheading, confidence: 0.90},
		{a: "73261990", b: "73269099", level: domain.LevelHeading, confidence: 0.70},
		{a: "73261990", b: "7320", level: domain.LevelChapter, confidence: 0.40},
		{a: "73261990", b: "84713010", level: domain.LevelNone, confidence: 0.10},
		{a: "732619", b: "73261990", level: domain.LevelSubheading, confidence: 0.90},
		{a: "7326", b: "732619", level: domain.LevelHeading, confidence: 0.70},
	}
	for _, tc := range cases {
		got := MatchCodes(tc.a, tc.b)
		if got.Level != tc.level || !almostEqual(got.Confidence, tc.confidence) {
			t.Fatalf("MatchCodes(%q, %q) = %+v, want %s/%.2f", tc.a, tc.b, got, tc.level, tc.confidence)
		}
		if !got.Valid {
			t.Fatalf("MatchCodes(%q, %q) reported invalid", tc.a, tc.b)
		}
	}
}

func TestSubheadingWhenSeventhDigitDiffers(t *testing.T) {
	prefixes := []string{"010121", "732619", "847130", "999999"}
	for _, p := range prefixes {
		for d := 0; d <= 9; d++ {
			a := p + string(rune('0'+d)) + "0"
			b := p + string(rune('0'+(d+1)%10)) + "0"
			got := MatchCodes(a, b)
			if got.Level != domain.LevelSubheading || !almostEqual(got.Confidence, 0.90) {
				t.Fatalf("MatchCodes(%q, %q) = %+v", a, b, got)
			}
		}
	}
}

func TestInvalidCodesHalveConfidence(t *testing.T) {
	got := MatchCodes("73", "73261990")
	if got.Valid {
		t.Fatalf("expected invalid result")
	}
	if got.Level != domain.LevelChapter || !almostEqual(got.Confidence, 0.20) {
		t.Fatalf("unexpected result: %+v", got)
	}

	got = MatchCodes("73261990123", "73261990123")
	if got.Level != domain.LevelExact || !almostEqual(got.Confidence, 0.495) {
		t.Fatalf("unexpected result for over-long codes: %+v", got)
	}

	got = MatchCodes("", "73261990")
	if got.Level != domain.LevelNone || !almostEqual(got.Confidence, 0.05) {
		t.Fatalf("unexpected result for empty code: %+v", got)
	}
}

func TestWorstPair(t *testing.T) {
	m := New(DefaultWeights())
	r, i, j, ok := m.Worst([]string{"73261990", "73261910", "7320"})
	if !ok {
		t.Fatalf("expected a pair")
	}
	if r.Level != domain.LevelChapter || i != 0 || j != 2 {
		t.Fatalf("unexpected worst pair: %+v (%d,%d)", r, i, j)
	}
	if _, _, _, ok := m.Worst([]string{"7326"}); ok {
		t.Fatalf("single code has no pair")
	}
}

func TestCustomWeights(t *testing.T) {
	w := DefaultWeights()
	w.Heading = 0.75
	got := New(w).Match("73261990", "73269099")
	if !almostEqual(got.Confidence, 0.75) {
		t.Fatalf("custom weight ignored: %+v", got)
	}
}
