package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoFragment is returned when a reply contains no decodable JSON fragment
var ErrNoFragment = errors.New("no JSON fragment found in response")

// FragmentKind selects which JSON shapes ExtractFragment accepts
type FragmentKind int

const (
	// AnyFragment accepts objects and arrays
	AnyFragment FragmentKind = iota
	// ObjectFragment accepts only objects
	ObjectFragment
	// ArrayFragment accepts only arrays
	ArrayFragment
)

func (k FragmentKind) opens(c byte) bool {
	switch k {
	case ObjectFragment:
		return c == '{'
	case ArrayFragment:
		return c == '['
	default:
		return c == '{' || c == '['
	}
}

// ExtractFragment finds the first balanced JSON value of the requested kind
// embedded in free-form text. Brackets inside string literals are ignored.
// Candidates that balance but do not parse are skipped.
func ExtractFragment(text string, kind FragmentKind) (string, error) {
	return scanFragments(text, kind, func(candidate string) bool {
		return json.Valid([]byte(candidate))
	})
}

// scanFragments returns the first balanced candidate that accept takes
func scanFragments(text string, kind FragmentKind, accept func(string) bool) (string, error) {
	for start := 0; start < len(text); start++ {
		if !kind.opens(text[start]) {
			continue
		}
		end := matchClose(text, start)
		if end < 0 {
			continue
		}
		if candidate := text[start : end+1]; accept(candidate) {
			return candidate, nil
		}
	}
	return "", ErrNoFragment
}

// matchClose returns the index of the bracket closing text[start], or -1
func matchClose(text string, start int) int {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// DecodeObject extracts the first JSON object in text into a generic map
func DecodeObject(text string) (map[string]any, error) {
	fragment, err := ExtractFragment(text, ObjectFragment)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(fragment), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeList extracts a list of objects from text. It accepts a bare array
// or an object wrapping the array under key. Arrays holding no object at
// all, such as a citation like [1], are skipped and scanning continues.
func DecodeList(text, key string) ([]map[string]any, error) {
	var items []any
	_, err := scanFragments(strings.TrimSpace(text), AnyFragment, func(candidate string) bool {
		list, ok := listOf(candidate, key)
		if !ok || !hasObject(list) {
			return false
		}
		items = list
		return true
	})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		} else {
			out = append(out, map[string]any{})
		}
	}
	return out, nil
}

// listOf decodes candidate as an array, or as an object wrapping one under key
func listOf(candidate, key string) ([]any, bool) {
	var raw any
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, false
	}
	switch v := raw.(type) {
	case []any:
		return v, true
	case map[string]any:
		inner, ok := v[key].([]any)
		return inner, ok
	}
	return nil, false
}

func hasObject(items []any) bool {
	for _, item := range items {
		if _, ok := item.(map[string]any); ok {
			return true
		}
	}
	return false
}
