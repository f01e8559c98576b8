package masto

import (
	"net/url"
	"strings"
)

// ParseNextLink extracts the max_id pagination token from a Link response
// header of the form:
//
//	<https://host/api/v1/timelines/home?max_id=123&limit=20>; rel="next",
//	<https://host/api/v1/timelines/home?min_id=456&limit=20>; rel="prev"
//
// Returns "" when no next page exists, which callers treat as end of feed.
func ParseNextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		isNext := false
		for _, attr := range segments[1:] {
			attr = strings.TrimSpace(attr)
			if attr == `rel="next"` || attr == "rel=next" {
				isNext = true
				break
			}
		}
		if !isNext {
			continue
		}
		u, err := url.Parse(target[1 : len(target)-1])
		if err != nil {
			return ""
		}
		return u.Query().Get("max_id")
	}
	return ""
}
