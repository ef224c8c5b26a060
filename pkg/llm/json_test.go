package llm

import "testing"

func TestExtractJSON_PlainObject(t *testing.T) {
	input := `{"color": "red", "confidence": 0.9}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	input := "```json\n{\"color\": \"red\"}\n```"
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"color": "red"}` {
		t.Errorf("got %q", result)
	}
}

func TestExtractJSON_ThinkTags(t *testing.T) {
	input := "<think>\nThe roof looks reddish brown.\n</think>\n{\"color\": \"red\", \"confidence\": 0.8}"
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"color": "red", "confidence": 0.8}` {
		t.Errorf("got %q", result)
	}
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	input := `Sure! Here is the result: {"color": "blue", "confidence": 0.7} Hope that helps.`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"color": "blue", "confidence": 0.7}` {
		t.Errorf("got %q", result)
	}
}

func TestExtractJSON_NestedAndEscaped(t *testing.T) {
	input := `{"outer": {"note": "brace } in string", "list": [1, 2]}}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("got %q", result)
	}
}

func TestExtractJSON_Array(t *testing.T) {
	input := `[{"color": "red"}, {"color": "blue"}]`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("got %q", result)
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	if _, err := ExtractJSON("the roof is red"); err == nil {
		t.Error("expected error for non-JSON input")
	}
}
