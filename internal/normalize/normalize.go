// Package normalize implements the node-type and node-name canonicalization
// rules of §4.1. Every comparison against a literal type string or node name
// anywhere in the system must go through Type or Name — the historical
// regression called out in spec.md (an entire family of AI-subgraph checks
// silently reporting zero findings for months) came from exactly one
// comparison skipping this step.
package normalize

import "strings"

// longPrefixes are vendor-prefixed spellings the host emits alongside the
// catalog's short form, e.g. "n8n-nodes-base.webhook" -> "webhook" and
// "@n8n/n8n-nodes-langchain.agent" -> "agent".
var longPrefixes = []string{
	"n8n-nodes-base.",
	"@n8n/n8n-nodes-langchain.",
	"n8n-nodes-langchain.",
	"CUSTOM.",
}

// Type canonicalizes a node-type identifier to the catalog's short form.
// It is idempotent: Type(Type(t)) == Type(t) for all t, and any two
// long/short/package-form spellings of the same logical type normalize to
// the same value (§8 property 3).
func Type(t string) string {
	t = strings.TrimSpace(t)
	for _, prefix := range longPrefixes {
		if strings.HasPrefix(t, prefix) {
			return t[len(prefix):]
		}
	}
	return t
}

// HasKnownPrefix reports whether t carries one of the recognized long-form
// prefixes, or no prefix at all is expected because it's already short-form.
// It is used by validator Pass 1 to distinguish "wrong prefix" (some other,
// unrecognized prefix before a dot) from a bare short-form type.
func HasKnownPrefix(t string) bool {
	for _, prefix := range longPrefixes {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return !strings.Contains(t, ".")
}

// Name applies the node-name normalization rule used for all name lookups
// and duplicate-name detection in the diff engine (§4.1):
//  1. unescape backslashes
//  2. unescape single and double quotes
//  3. collapse any run of whitespace (tab/newline/multiple spaces) to a
//     single space
//  4. trim leading/trailing whitespace
//
// The order matters: unescaping quotes before backslashes corrupts
// doubly-escaped input (e.g. `\\'` would lose the backslash first).
func Name(s string) string {
	s = unescapeBackslashes(s)
	s = unescapeQuotes(s)
	s = collapseWhitespace(s)
	return strings.TrimSpace(s)
}

func unescapeBackslashes(s string) string {
	return strings.ReplaceAll(s, `\\`, `\`)
}

func unescapeQuotes(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	return s
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}
