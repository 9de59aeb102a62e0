package normalize

import "testing"

func TestTypeEquivalentForms(t *testing.T) {
	forms := []string{
		"n8n-nodes-base.webhook",
		"webhook",
	}
	want := "webhook"
	for _, f := range forms {
		if got := Type(f); got != want {
			t.Errorf("Type(%q) = %q, want %q", f, got, want)
		}
	}

	langchainForms := []string{
		"@n8n/n8n-nodes-langchain.agent",
		"n8n-nodes-langchain.agent",
		"agent",
	}
	for _, f := range langchainForms {
		if got := Type(f); got != "agent" {
			t.Errorf("Type(%q) = %q, want %q", f, got, "agent")
		}
	}
}

func TestTypeIdempotent(t *testing.T) {
	cases := []string{
		"n8n-nodes-base.webhook",
		"webhook",
		"@n8n/n8n-nodes-langchain.agent",
		"",
		"nodes-base.webhook", // wrong/unknown prefix, not in longPrefixes
	}
	for _, c := range cases {
		once := Type(c)
		twice := Type(once)
		if once != twice {
			t.Errorf("Type not idempotent for %q: Type=%q Type(Type)=%q", c, once, twice)
		}
	}
}

func TestHasKnownPrefix(t *testing.T) {
	if !HasKnownPrefix("n8n-nodes-base.webhook") {
		t.Error("expected known prefix")
	}
	if !HasKnownPrefix("webhook") {
		t.Error("bare short form has no dot, should count as known")
	}
	if HasKnownPrefix("nodes-base.webhook") {
		t.Error("wrong prefix should not be considered known")
	}
}

func TestNameOrderMatters(t *testing.T) {
	// Doubly-escaped input: a literal backslash followed by an escaped quote.
	// Unescaping backslashes first turns `\\'` into `\'`, then quote-unescape
	// turns that into `'`. Doing quotes first would corrupt it.
	in := `Node \\'A\\'  name`
	got := Name(in)
	want := `Node 'A' name`
	if got != want {
		t.Errorf("Name(%q) = %q, want %q", in, got, want)
	}
}

func TestNameCollapsesWhitespace(t *testing.T) {
	in := "Node\t\tA\n\n  B"
	want := "Node A B"
	if got := Name(in); got != want {
		t.Errorf("Name(%q) = %q, want %q", in, got, want)
	}
}

func TestNameIdempotent(t *testing.T) {
	cases := []string{"  Node  A  ", `a\'b`, "tab\there"}
	for _, c := range cases {
		once := Name(c)
		twice := Name(once)
		if once != twice {
			t.Errorf("Name not idempotent for %q: %q vs %q", c, once, twice)
		}
	}
}
