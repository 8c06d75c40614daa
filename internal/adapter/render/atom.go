package render

import (
	"encoding/xml"
	"strings"
	"time"

	"feedfilter/internal/domain"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

type atomFeedXML struct {
	XMLName   xml.Name        `xml:"feed"`
	Xmlns     string          `xml:"xmlns,attr"`
	ID        string          `xml:"id"`
	Title     string          `xml:"title"`
	Subtitle  string          `xml:"subtitle,omitempty"`
	Updated   string          `xml:"updated"`
	Generator string          `xml:"generator,omitempty"`
	Links     []atomLinkXML   `xml:"link"`
	Authors   []atomPersonXML `xml:"author"`
	Entries   []atomEntryXML  `xml:"entry"`
}

type atomLinkXML struct {
	Href     string `xml:"href,attr"`
	Rel      string `xml:"rel,attr,omitempty"`
	Type     string `xml:"type,attr,omitempty"`
	Hreflang string `xml:"hreflang,attr,omitempty"`
	Title    string `xml:"title,attr,omitempty"`
	Length   string `xml:"length,attr,omitempty"`
}

type atomPersonXML struct {
	Name  string `xml:"name"`
	Email string `xml:"email,omitempty"`
	URI   string `xml:"uri,omitempty"`
}

type atomCategoryXML struct {
	Term   string `xml:"term,attr"`
	Scheme string `xml:"scheme,attr,omitempty"`
	Label  string `xml:"label,attr,omitempty"`
}

type atomTextXML struct {
	Type  string `xml:"type,attr,omitempty"`
	Src   string `xml:"src,attr,omitempty"`
	Value string `xml:",chardata"`
}

type atomEntryXML struct {
	ID         string            `xml:"id"`
	Title      string            `xml:"title"`
	Updated    string            `xml:"updated,omitempty"`
	Published  string            `xml:"published,omitempty"`
	Links      []atomLinkXML     `xml:"link"`
	Authors    []atomPersonXML   `xml:"author"`
	Categories []atomCategoryXML `xml:"category"`
	Summary    *atomTextXML      `xml:"summary"`
	Content    *atomTextXML      `xml:"content"`
	Rights     string            `xml:"rights,omitempty"`
}

// AtomRenderer строит Atom-ленту. Идентификатор, авторы и ссылки ленты берутся
// из ленты источника, заголовок и подзаголовок - из FeedConfig, записи переносятся полностью.
type AtomRenderer struct {
	clock Clock
}

func NewAtomRenderer(clock Clock) *AtomRenderer {
	return &AtomRenderer{clock: clock}
}

func (r *AtomRenderer) Kind() domain.Kind { return domain.KindAtom }

// Render возвращает *domain.RenderError, если у ленты источника нет id
// или в конфигурации не задан заголовок.
func (r *AtomRenderer) Render(src *domain.Feed, entries []domain.Entry, cfg domain.FeedConfig) (*domain.Document, error) {
	if src.ID == "" {
		return nil, &domain.RenderError{Kind: domain.KindAtom, Field: "id"}
	}
	if cfg.Title == "" {
		return nil, &domain.RenderError{Kind: domain.KindAtom, Field: "title"}
	}
	now := r.clock.now()
	out := atomFeedXML{
		Xmlns:     atomNamespace,
		ID:        src.ID,
		Title:     cfg.Title,
		Subtitle:  cfg.Description,
		Updated:   now.Format(time.RFC3339),
		Generator: Generator,
		Links:     atomLinks(src.Links),
		Authors:   atomPeople(src.Authors),
		Entries:   make([]atomEntryXML, 0, len(entries)),
	}
	for i := range entries {
		out.Entries = append(out.Entries, atomEntry(&entries[i]))
	}
	body, err := encode(out)
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		Kind:       domain.KindAtom,
		Body:       body,
		ProducedAt: now,
		Entries:    len(entries),
	}, nil
}

func atomEntry(e *domain.Entry) atomEntryXML {
	out := atomEntryXML{
		ID:        e.ID,
		Title:     e.Title,
		Updated:   atomTime(e.Updated),
		Published: atomTime(e.Published),
		Links:     atomLinks(e.Links),
		Authors:   atomPeople(e.Authors),
		Rights:    e.Rights,
	}
	for _, c := range e.Categories {
		out.Categories = append(out.Categories, atomCategoryXML{Term: c.Term, Scheme: c.Scheme, Label: c.Label})
	}
	if e.Summary != "" {
		out.Summary = &atomTextXML{Type: textType(e.Summary), Value: e.Summary}
	}
	if e.Content != nil {
		out.Content = &atomTextXML{
			Type:  contentType(e.Content),
			Src:   e.Content.Src,
			Value: e.Content.Value,
		}
	}
	return out
}

func atomLinks(links []domain.Link) []atomLinkXML {
	out := make([]atomLinkXML, 0, len(links))
	for _, l := range links {
		out = append(out, atomLinkXML{
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

func atomPeople(people []domain.Person) []atomPersonXML {
	out := make([]atomPersonXML, 0, len(people))
	for _, p := range people {
		out = append(out, atomPersonXML{Name: p.Name, Email: p.Email, URI: p.URI})
	}
	return out
}

func atomTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// textType помечает разметку как html: парсер отдает уже раскодированный текст,
// и при сериализации он экранируется.
func textType(s string) string {
	if strings.ContainsAny(s, "<&") {
		return "html"
	}
	return ""
}

// xhtml-содержимое после разбора хранится как строка разметки и выводится как html.
func contentType(c *domain.Content) string {
	t := strings.ToLower(c.Type)
	switch {
	case t == "" || t == "text":
		return textType(c.Value)
	case strings.Contains(t, "xhtml"):
		return "html"
	default:
		return c.Type
	}
}
