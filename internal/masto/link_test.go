package masto

import "testing"

func TestParseNextLink(t *testing.T) {
	header := `<https://example.social/api/v1/timelines/home?max_id=123&limit=20>; rel="next", ` +
		`<https://example.social/api/v1/timelines/home?min_id=456&limit=20>; rel="prev"`
	if got := ParseNextLink(header); got != "123" {
		t.Errorf("got %q, want 123", got)
	}
}

func TestParseNextLinkPrevOnly(t *testing.T) {
	header := `<https://example.social/api/v1/timelines/home?min_id=456>; rel="prev"`
	if got := ParseNextLink(header); got != "" {
		t.Errorf("got %q, want empty for end of feed", got)
	}
}

func TestParseNextLinkEmptyAndMalformed(t *testing.T) {
	for _, header := range []string{
		"",
		"garbage",
		`<not-a-url>; rel="next"`,
		`https://example.social/x; rel="next"`, // missing angle brackets
	} {
		if got := ParseNextLink(header); got != "" {
			t.Errorf("header %q: got %q, want empty", header, got)
		}
	}
}

func TestParseNextLinkUnquotedRel(t *testing.T) {
	header := `<https://example.social/api/v1/notifications?max_id=77>; rel=next`
	if got := ParseNextLink(header); got != "77" {
		t.Errorf("got %q, want 77", got)
	}
}
