package llm

import (
	"errors"
	"testing"
)

func TestExtractFragment(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind FragmentKind
		want string
		err  bool
	}{
		{
			name: "bare object",
			text: `{"a":1}`,
			kind: ObjectFragment,
			want: `{"a":1}`,
		},
		{
			name: "object wrapped in prose",
			text: "Sure! Here is the analysis:\n{\"summary\":\"x\"}\nHope this helps.",
			kind: ObjectFragment,
			want: `{"summary":"x"}`,
		},
		{
			name: "markdown fence",
			text: "```json\n[{\"q\":1}]\n```",
			kind: AnyFragment,
			want: `[{"q":1}]`,
		},
		{
			name: "braces inside strings",
			text: `note {"text":"use } and { freely","n":[1,2]} end`,
			kind: ObjectFragment,
			want: `{"text":"use } and { freely","n":[1,2]}`,
		},
		{
			name: "escaped quote inside string",
			text: `{"text":"say \"}\" now"}`,
			kind: ObjectFragment,
			want: `{"text":"say \"}\" now"}`,
		},
		{
			name: "skips invalid candidate",
			text: `{not json} then {"ok":true}`,
			kind: ObjectFragment,
			want: `{"ok":true}`,
		},
		{
			name: "object kind ignores arrays",
			text: `[1,2] {"a":[3]}`,
			kind: ObjectFragment,
			want: `{"a":[3]}`,
		},
		{
			name: "array kind",
			text: `{"x":1} [ {"q":"a"} ]`,
			kind: ArrayFragment,
			want: `[ {"q":"a"} ]`,
		},
		{
			name: "unbalanced",
			text: `{"a":1`,
			kind: AnyFragment,
			err:  true,
		},
		{
			name: "no json",
			text: "I cannot help with that.",
			kind: AnyFragment,
			err:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFragment(tt.text, tt.kind)
			if tt.err {
				if !errors.Is(err, ErrNoFragment) {
					t.Fatalf("Expected ErrNoFragment, got %v (%q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject("result: {\"summary\":\"s\",\"keyPoints\":[\"a\",\"b\"]}")
	if err != nil {
		t.Fatalf("DecodeObject failed: %v", err)
	}
	if obj["summary"] != "s" {
		t.Errorf("Unexpected summary: %v", obj["summary"])
	}
	if points, ok := obj["keyPoints"].([]any); !ok || len(points) != 2 {
		t.Errorf("Unexpected keyPoints: %v", obj["keyPoints"])
	}
}

func TestDecodeList(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		items, err := DecodeList(`[{"question":"a"},{"question":"b"}]`, "questions")
		if err != nil {
			t.Fatalf("DecodeList failed: %v", err)
		}
		if len(items) != 2 || items[1]["question"] != "b" {
			t.Errorf("Unexpected items: %v", items)
		}
	})

	t.Run("wrapped array", func(t *testing.T) {
		items, err := DecodeList(`Here: {"questions":[{"question":"a"}]}`, "questions")
		if err != nil {
			t.Fatalf("DecodeList failed: %v", err)
		}
		if len(items) != 1 {
			t.Errorf("Expected 1 item, got %d", len(items))
		}
	})

	t.Run("non-object entries become empty", func(t *testing.T) {
		items, err := DecodeList(`["oops", {"question":"a"}]`, "questions")
		if err != nil {
			t.Fatalf("DecodeList failed: %v", err)
		}
		if len(items) != 2 || len(items[0]) != 0 {
			t.Errorf("Unexpected items: %v", items)
		}
	})

	t.Run("object without key", func(t *testing.T) {
		_, err := DecodeList(`{"items":[]}`, "questions")
		if !errors.Is(err, ErrNoFragment) {
			t.Fatalf("Expected ErrNoFragment, got %v", err)
		}
	})

	t.Run("arrays without objects are skipped", func(t *testing.T) {
		items, err := DecodeList(`see [1] and ["a","b"]: [{"question":"a"}]`, "questions")
		if err != nil {
			t.Fatalf("DecodeList failed: %v", err)
		}
		if len(items) != 1 || items[0]["question"] != "a" {
			t.Errorf("Unexpected items: %v", items)
		}
	})

	t.Run("only citations", func(t *testing.T) {
		for _, text := range []string{"see [1]", "[]", `{"questions":[1,2]}`} {
			if _, err := DecodeList(text, "questions"); !errors.Is(err, ErrNoFragment) {
				t.Errorf("DecodeList(%q): expected ErrNoFragment, got %v", text, err)
			}
		}
	})
}
