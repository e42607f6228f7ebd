package nutrition

import (
	"strings"

	"golang.org/x/text/cases"
)

// SourceFilter matches a record's source name against a set of tags using
// Unicode case folding and substring containment.
// A SourceFilter is not safe for concurrent use.
type SourceFilter struct {
	fold cases.Caser
	tags []string
}

// NewSourceFilter builds a filter for tags. Blank tags are ignored.
func NewSourceFilter(tags []string) *SourceFilter {
	f := &SourceFilter{fold: cases.Fold()}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		f.tags = append(f.tags, f.fold.String(t))
	}
	return f
}

// Match reports whether source contains any tag.
// A filter without tags matches nothing.
func (f *SourceFilter) Match(source string) bool {
	if len(f.tags) == 0 {
		return false
	}
	folded := f.fold.String(source)
	for _, t := range f.tags {
		if strings.Contains(folded, t) {
			return true
		}
	}
	return false
}
