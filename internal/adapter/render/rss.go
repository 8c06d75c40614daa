package render

import (
	"encoding/xml"
	"time"

	"feedfilter/internal/domain"
)

type rssXML struct {
	XMLName xml.Name      `xml:"rss"`
	Version string        `xml:"version,attr"`
	Channel rssChannelXML `xml:"channel"`
}

type rssChannelXML struct {
	Title         string       `xml:"title"`
	Link          string       `xml:"link"`
	Description   string       `xml:"description"`
	Language      string       `xml:"language,omitempty"`
	Generator     string       `xml:"generator,omitempty"`
	LastBuildDate string       `xml:"lastBuildDate,omitempty"`
	Items         []rssItemXML `xml:"item"`
}

type rssItemXML struct {
	Title       string      `xml:"title"`
	Link        string      `xml:"link,omitempty"`
	Description string      `xml:"description"`
	Author      string      `xml:"author,omitempty"`
	GUID        *rssGUIDXML `xml:"guid"`
	PubDate     string      `xml:"pubDate,omitempty"`
}

type rssGUIDXML struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// RSSRenderer строит RSS 2.0 канал из отфильтрованных записей.
type RSSRenderer struct {
	clock    Clock
	language string
}

func NewRSSRenderer(clock Clock) *RSSRenderer {
	return &RSSRenderer{clock: clock, language: "en-us"}
}

func (r *RSSRenderer) Kind() domain.Kind { return domain.KindRSS }

// Render берет ссылку канала из основной ссылки источника, а при её отсутствии - из id ленты.
// Если нет ни того, ни другого, возвращается *domain.RenderError.
func (r *RSSRenderer) Render(src *domain.Feed, entries []domain.Entry, cfg domain.FeedConfig) (*domain.Document, error) {
	link := src.PrimaryLink()
	if link == "" {
		link = src.ID
	}
	if link == "" {
		return nil, &domain.RenderError{Kind: domain.KindRSS, Field: "link"}
	}
	if cfg.Title == "" {
		return nil, &domain.RenderError{Kind: domain.KindRSS, Field: "title"}
	}
	now := r.clock.now()
	out := rssXML{
		Version: "2.0",
		Channel: rssChannelXML{
			Title:         cfg.Title,
			Link:          link,
			Description:   cfg.Description,
			Language:      r.language,
			Generator:     Generator,
			LastBuildDate: now.Format(time.RFC1123Z),
			Items:         make([]rssItemXML, 0, len(entries)),
		},
	}
	for i := range entries {
		out.Channel.Items = append(out.Channel.Items, rssItem(&entries[i]))
	}
	body, err := encode(out)
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		Kind:       domain.KindRSS,
		Body:       body,
		ProducedAt: now,
		Entries:    len(entries),
	}, nil
}

func rssItem(e *domain.Entry) rssItemXML {
	item := rssItemXML{
		Title:       e.Title,
		Link:        e.FirstLink(),
		Description: description(e),
		Author:      e.FirstAuthor(),
	}
	if e.ID != "" {
		item.GUID = &rssGUIDXML{IsPermaLink: "false", Value: e.ID}
	}
	date := e.Updated
	if date.IsZero() {
		date = e.Published
	}
	if !date.IsZero() {
		item.PubDate = date.Format(time.RFC1123Z)
	}
	return item
}

// description: аннотация, иначе тело записи, иначе пустая строка.
func description(e *domain.Entry) string {
	if e.Summary != "" {
		return e.Summary
	}
	if e.Content != nil {
		return e.Content.Value
	}
	return ""
}
