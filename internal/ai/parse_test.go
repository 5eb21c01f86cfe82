package ai_test

import (
	"testing"

	"jobscout/scout-service/internal/ai"
)

func TestExtractJSON_BareDocument(t *testing.T) {
	for _, raw := range []string{
		`[{"index": 1, "fit_score": 7}]`,
		`{"ok": true}`,
		"  \n[1, 2, 3]\n  ",
	} {
		got, ok := ai.ExtractJSON(raw)
		if !ok {
			t.Errorf("ExtractJSON(%q) failed", raw)
			continue
		}
		if got == "" {
			t.Errorf("ExtractJSON(%q) returned empty document", raw)
		}
	}
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	raw := "Here are the scores:\n```json\n[{\"index\": 1}]\n```\nLet me know if you need more."
	got, ok := ai.ExtractJSON(raw)
	if !ok {
		t.Fatal("fenced block not extracted")
	}
	if got != `[{"index": 1}]` {
		t.Errorf("ExtractJSON = %q", got)
	}
}

func TestExtractJSON_FenceWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"a\": 1}\n```"
	got, ok := ai.ExtractJSON(raw)
	if !ok || got != `{"a": 1}` {
		t.Errorf("ExtractJSON = %q, ok = %t", got, ok)
	}
}

// Prose around a bare array: fall back to the widest bracketed span.
func TestExtractJSON_ArrayInProse(t *testing.T) {
	raw := `Sure! The scores are [{"index": 1, "fit_score": 8}] as requested.`
	got, ok := ai.ExtractJSON(raw)
	if !ok {
		t.Fatal("bracketed span not extracted")
	}
	if got != `[{"index": 1, "fit_score": 8}]` {
		t.Errorf("ExtractJSON = %q", got)
	}
}

func TestExtractJSON_ObjectInProse(t *testing.T) {
	raw := `The result is {"fit_score": 6} overall.`
	got, ok := ai.ExtractJSON(raw)
	if !ok || got != `{"fit_score": 6}` {
		t.Errorf("ExtractJSON = %q, ok = %t", got, ok)
	}
}

func TestExtractJSON_NothingParseable(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"I cannot score these jobs.",
		"broken [1, 2",         // unbalanced
		`almost {"a": } done`,  // invalid span
	} {
		if got, ok := ai.ExtractJSON(raw); ok {
			t.Errorf("ExtractJSON(%q) = %q, want failure", raw, got)
		}
	}
}
