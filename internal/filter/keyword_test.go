package filter

import (
	"testing"

	"feedfilter/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestKeyword_Matches(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		entry   domain.Entry
		want    bool
	}{
		{"upper-case title", "Article", domain.Entry{Title: "ARTICLE: How to code"}, true},
		{"mixed-case title", "Article", domain.Entry{Title: "New Article about Rust"}, true},
		{"lower keyword", "article", domain.Entry{Title: "Updated article on web dev"}, true},
		{"no match", "Article", domain.Entry{Title: "Fix bug in parser"}, false},
		{"readme", "article", domain.Entry{Title: "Update README"}, false},
		{"summary only", "article", domain.Entry{Title: "Release notes", Summary: "Read the full ARTICLE here"}, true},
		{"substring inside word", "article", domain.Entry{Title: "Articles of incorporation"}, true},
		{"missing summary", "article", domain.Entry{Title: "Nothing"}, false},
		{"content is ignored", "article", domain.Entry{
			Title:   "Changelog",
			Content: &domain.Content{Value: "article in the body"},
		}, false},
		{"empty keyword matches all", "", domain.Entry{Title: "Anything"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewKeyword(tt.keyword).Matches(&tt.entry))
		})
	}
}

func TestKeyword_Apply_PreservesOrder(t *testing.T) {
	entries := []domain.Entry{
		{ID: "1", Title: "Weekly Article Roundup"},
		{ID: "2", Title: "Bug Fixes"},
		{ID: "3", Title: "Another article on testing"},
		{ID: "4", Title: "Misc", Summary: "an ARTICLE in the summary"},
	}

	got := NewKeyword("article").Apply(entries)

	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"1", "3", "4"}, ids)
	assert.Len(t, entries, 4)
	assert.Equal(t, "2", entries[1].ID)
}

func TestKeyword_Apply_Empty(t *testing.T) {
	got := NewKeyword("article").Apply(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
