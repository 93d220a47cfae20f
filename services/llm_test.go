package services

import (
	"strings"
	"testing"

	"github.com/lchelper/hints_api/dto"
)

func TestParseHintsTextJSONBlock(t *testing.T) {
	text := "Here is your answer:\n```json\n" + `{
  "hints": {"gentle": "g", "stronger": "s", "almost": "a"},
  "topic": "Array",
  "timeComplexity": "O(n)",
  "spaceComplexity": "O(1)"
}` + "\n```\nGood luck!"

	payload := parseHintsText(text)
	if payload.Hints.Gentle != "g" || payload.Hints.Stronger != "s" || payload.Hints.Almost != "a" {
		t.Errorf("hints not parsed: %+v", payload.Hints)
	}
	if payload.Topic != "Array" {
		t.Errorf("topic = %q, want Array", payload.Topic)
	}
	if payload.TimeComplexity != "O(n)" {
		t.Errorf("timeComplexity = %q, want O(n)", payload.TimeComplexity)
	}
}

func TestParseHintsTextPlainFallback(t *testing.T) {
	text := "Think about using a hash map for constant time lookups."

	payload := parseHintsText(text)
	if payload.Hints.Gentle != text {
		t.Errorf("fallback should carry the raw text, got %q", payload.Hints.Gentle)
	}
	if payload.Topic != "Unknown" {
		t.Errorf("fallback topic = %q, want Unknown", payload.Topic)
	}
}

func TestParseExplanationText(t *testing.T) {
	text := `{"explanation": "e", "keyConcepts": ["k1", "k2"], "examples": ["x"], "approach": "ap"}`

	payload := parseExplanationText(text)
	if payload.Explanation != "e" {
		t.Errorf("explanation = %q", payload.Explanation)
	}
	if len(payload.KeyConcepts) != 2 {
		t.Errorf("keyConcepts = %v", payload.KeyConcepts)
	}
	if payload.Approach != "ap" {
		t.Errorf("approach = %q", payload.Approach)
	}

	fallback := parseExplanationText("not json at all")
	if fallback.Explanation != "not json at all" {
		t.Errorf("fallback = %q", fallback.Explanation)
	}
}

func TestBuildHintsPrompt(t *testing.T) {
	problem := dto.Problem{Title: "Two Sum", Difficulty: "Easy", Description: "Find two numbers."}
	prompt := buildHintsPrompt(problem, "leetcode")

	for _, want := range []string{"Two Sum", "leetcode", "Easy", "Find two numbers.", "Gentle Push", "timeComplexity"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	bare := buildHintsPrompt(dto.Problem{Title: "Mystery"}, "codeforces")
	if !strings.Contains(bare, "Unknown") || !strings.Contains(bare, "Not provided") {
		t.Error("prompt should mark missing difficulty and description")
	}
}
