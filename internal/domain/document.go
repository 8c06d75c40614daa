package domain

import (
	"fmt"
	"time"
)

// Kind - формат выходной ленты.
type Kind string

const (
	KindAtom Kind = "atom"
	KindRSS  Kind = "rss"
)

// Kinds перечисляет все поддерживаемые форматы выдачи.
var Kinds = []Kind{KindAtom, KindRSS}

// ParseKind разбирает название формата ("atom" или "rss").
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAtom:
		return KindAtom, nil
	case KindRSS:
		return KindRSS, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// ContentType возвращает значение заголовка Content-Type для формата.
func (k Kind) ContentType() string {
	switch k {
	case KindAtom:
		return "application/atom+xml; charset=utf-8"
	case KindRSS:
		return "application/rss+xml; charset=utf-8"
	default:
		return "application/xml; charset=utf-8"
	}
}

// Document - полностью сериализованная выходная лента и момент её построения.
// Документ неизменяем: кэш всегда заменяет его целиком.
type Document struct {
	Kind       Kind
	Body       []byte
	ProducedAt time.Time
	// Entries - число записей, попавших в документ после фильтрации.
	Entries int
}

// FeedConfig - неизменяемые параметры выдачи, задаются один раз при старте.
type FeedConfig struct {
	URL         string
	FilterWord  string
	Title       string
	Description string
}
