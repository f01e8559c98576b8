package normalize

import (
	"strings"

	"github.com/feedplex/feedplex/internal/atp"
	"github.com/feedplex/feedplex/internal/model"
)

// facetEntities extracts mentions and hashtags from record facets. Facet
// indices are byte offsets into the UTF-8 encoding of the text, not rune
// offsets; each range is sliced independently and out-of-bounds ranges are
// skipped rather than failing the post.
func facetEntities(text string, facets []atp.Facet) ([]model.Mention, []string) {
	var mentions []model.Mention
	var tags []string

	raw := []byte(text)
	for _, f := range facets {
		start, end := f.Index.ByteStart, f.Index.ByteEnd
		if start < 0 || end > len(raw) || start >= end {
			continue
		}
		slice := string(raw[start:end])

		for _, feat := range f.Features {
			switch {
			case strings.HasSuffix(feat.Type, "#mention"):
				if feat.DID == "" {
					continue
				}
				mentions = append(mentions, model.Mention{
					AccountID: feat.DID,
					Handle:    strings.TrimPrefix(slice, "@"),
				})
			case strings.HasSuffix(feat.Type, "#tag"):
				tag := feat.Tag
				if tag == "" {
					tag = strings.TrimPrefix(slice, "#")
				}
				if tag != "" {
					tags = append(tags, tag)
				}
			}
		}
	}
	return mentions, tags
}
