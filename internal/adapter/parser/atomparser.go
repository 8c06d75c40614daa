package parser

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"feedfilter/internal/domain"

	"github.com/mmcdole/gofeed/atom"
)

// AtomParser разбирает тело ответа источника как Atom-документ.
type AtomParser struct {
	parser *atom.Parser
	log    *slog.Logger
}

func NewAtomParser(log *slog.Logger) *AtomParser {
	return &AtomParser{
		parser: &atom.Parser{},
		log:    log.With(slog.String("component", "parser")),
	}
}

// Parse реализует метод интерфейса FeedParser.
// Порядок записей сохраняется как в исходном документе.
func (p *AtomParser) Parse(ctx context.Context, data []byte) (*domain.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := p.parser.Parse(bytes.NewReader(data))
	if err != nil {
		p.log.Error("Error decoding Atom document", slog.Any("error", err))
		return nil, &domain.MalformedFeedError{Err: err}
	}
	feed := &domain.Feed{
		ID:       src.ID,
		Title:    src.Title,
		Subtitle: src.Subtitle,
		Updated:  parsedTime(src.UpdatedParsed),
		Links:    convertLinks(src.Links),
		Authors:  convertPeople(src.Authors),
		Entries:  make([]domain.Entry, 0, len(src.Entries)),
	}
	for _, e := range src.Entries {
		feed.Entries = append(feed.Entries, convertEntry(e))
	}
	p.log.Debug("Atom document parsed", slog.Int("items_found", len(feed.Entries)))
	return feed, nil
}

func convertEntry(e *atom.Entry) domain.Entry {
	entry := domain.Entry{
		ID:         e.ID,
		Title:      e.Title,
		Summary:    e.Summary,
		Links:      convertLinks(e.Links),
		Authors:    convertPeople(e.Authors),
		Categories: convertCategories(e.Categories),
		Rights:     e.Rights,
		Published:  parsedTime(e.PublishedParsed),
		Updated:    parsedTime(e.UpdatedParsed),
	}
	if e.Content != nil {
		entry.Content = &domain.Content{
			Type:  e.Content.Type,
			Src:   e.Content.Src,
			Value: e.Content.Value,
		}
	}
	return entry
}

func convertLinks(links []*atom.Link) []domain.Link {
	if len(links) == 0 {
		return nil
	}
	out := make([]domain.Link, 0, len(links))
	for _, l := range links {
		if l == nil {
			continue
		}
		out = append(out, domain.Link{
			Href:     l.Href,
			Rel:      l.Rel,
			Type:     l.Type,
			Hreflang: l.Hreflang,
			Title:    l.Title,
			Length:   l.Length,
		})
	}
	return out
}

func convertPeople(people []*atom.Person) []domain.Person {
	if len(people) == 0 {
		return nil
	}
	out := make([]domain.Person, 0, len(people))
	for _, p := range people {
		if p == nil {
			continue
		}
		out = append(out, domain.Person{Name: p.Name, Email: p.Email, URI: p.URI})
	}
	return out
}

func convertCategories(categories []*atom.Category) []domain.Category {
	if len(categories) == 0 {
		return nil
	}
	out := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if c == nil {
			continue
		}
		out = append(out, domain.Category{Term: c.Term, Scheme: c.Scheme, Label: c.Label})
	}
	return out
}

func parsedTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
