package normalize

// LabelRule maps one moderation label to content-warning semantics.
type LabelRule struct {
	Sensitive bool
	// Spoiler, when non-empty, is used as the spoiler text if the post has
	// none of its own.
	Spoiler string
}

// LabelTable is the label→sensitivity vocabulary. It is data, not logic:
// config may extend or override entries, and unmapped labels are ignored.
type LabelTable map[string]LabelRule

// DefaultLabelTable covers the label values the backend commonly applies.
var DefaultLabelTable = LabelTable{
	"porn":           {Sensitive: true},
	"sexual":         {Sensitive: true},
	"nudity":         {Sensitive: true},
	"graphic-media":  {Sensitive: true},
	"gore":           {Sensitive: true},
	"corpse":         {Sensitive: true},
	"self-harm":      {Sensitive: true},
	"!warn":          {Sensitive: true, Spoiler: "content warning"},
	"!hide":          {Sensitive: true, Spoiler: "content warning"},
	"sexual-figurative": {Sensitive: true},
}

// Merge returns a copy of t with overrides applied on top.
func (t LabelTable) Merge(overrides LabelTable) LabelTable {
	out := make(LabelTable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
