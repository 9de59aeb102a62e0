package expression

import "testing"

func TestClassifyCorrect(t *testing.T) {
	cases := []string{
		`={{ $json.foo }}`,
		`plain string, no markers`,
		`={{ $node('HTTP').json.body }}`,
	}
	for _, c := range cases {
		if class, _, _ := Classify(c); class != Correct {
			t.Errorf("Classify(%q) = %q, want correct", c, class)
		}
	}
}

func TestClassifyMissingEqualsPrefix(t *testing.T) {
	in := `{{ $json.foo }}`
	class, fix, confidence := Classify(in)
	if class != MissingEqualsPrefix {
		t.Fatalf("Classify(%q) = %q, want missing-equals-prefix", in, class)
	}
	if fix != "="+in {
		t.Errorf("fix = %q, want %q", fix, "="+in)
	}
	if confidence != "high" {
		t.Errorf("confidence = %q, want high", confidence)
	}
}

func TestClassifySuperfluousEqualsPrefix(t *testing.T) {
	in := `=$json.foo`
	class, fix, _ := Classify(in)
	if class != SuperfluousEqualsPrefix {
		t.Fatalf("Classify(%q) = %q, want superfluous-equals-prefix", in, class)
	}
	if fix != "$json.foo" {
		t.Errorf("fix = %q, want %q", fix, "$json.foo")
	}
}

func TestClassifyMalformed(t *testing.T) {
	cases := []string{
		`={{ $json.foo`,
		`$json.foo }}`,
	}
	for _, c := range cases {
		if class, _, _ := Classify(c); class != Malformed {
			t.Errorf("Classify(%q) = %q, want malformed", c, class)
		}
	}
}

func TestScanRecursesIntoNestedStructures(t *testing.T) {
	params := map[string]any{
		"url": "{{ $json.url }}",
		"body": map[string]any{
			"nested": "=$json.needsBraces",
		},
		"headers": []any{
			map[string]any{"value": "{{ $json.h1 }}"},
		},
		"plain": "no markers here",
	}

	issues := Scan("HTTP Request", params)
	if len(issues) != 3 {
		t.Fatalf("Scan returned %d issues, want 3: %+v", len(issues), issues)
	}

	byPath := make(map[string]Issue, len(issues))
	for _, is := range issues {
		byPath[is.Path] = is
	}

	if is, ok := byPath["url"]; !ok || is.Class != MissingEqualsPrefix {
		t.Errorf("issue at url = %+v, want missing-equals-prefix", is)
	}
	if is, ok := byPath["body.nested"]; !ok || is.Class != SuperfluousEqualsPrefix {
		t.Errorf("issue at body.nested = %+v, want superfluous-equals-prefix", is)
	}
	if is, ok := byPath["headers[0].value"]; !ok || is.Class != MissingEqualsPrefix {
		t.Errorf("issue at headers[0].value = %+v, want missing-equals-prefix", is)
	}
	if _, ok := byPath["plain"]; ok {
		t.Error("plain string should not be flagged")
	}
	for _, is := range issues {
		if is.NodeName != "HTTP Request" {
			t.Errorf("NodeName = %q, want HTTP Request", is.NodeName)
		}
	}
}

func TestScanEmptyParameters(t *testing.T) {
	if issues := Scan("n", nil); len(issues) != 0 {
		t.Errorf("Scan(nil) = %v, want empty", issues)
	}
}
