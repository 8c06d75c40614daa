package domain

import "time"

// Feed представляет разобранную Atom-ленту источника.
// Метаданные ленты (ID, ссылки, авторы) переносятся в Atom-выдачу как есть.
type Feed struct {
	ID       string
	Title    string
	Subtitle string
	Updated  time.Time
	Links    []Link
	Authors  []Person
	Entries  []Entry
}

// PrimaryLink возвращает основную ссылку ленты: alternate (или без rel), иначе первую.
func (f *Feed) PrimaryLink() string {
	for _, l := range f.Links {
		if l.Rel == "" || l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(f.Links) > 0 {
		return f.Links[0].Href
	}
	return ""
}

// Entry представляет одну запись ленты источника.
// Создается парсером и больше не изменяется.
type Entry struct {
	ID         string
	Title      string
	Summary    string
	Content    *Content
	Links      []Link
	Authors    []Person
	Categories []Category
	Rights     string
	Published  time.Time
	Updated    time.Time
}

// FirstLink возвращает href первой ссылки записи или пустую строку.
func (e *Entry) FirstLink() string {
	if len(e.Links) == 0 {
		return ""
	}
	return e.Links[0].Href
}

// FirstAuthor возвращает имя первого автора записи или пустую строку.
func (e *Entry) FirstAuthor() string {
	if len(e.Authors) == 0 {
		return ""
	}
	return e.Authors[0].Name
}

type Link struct {
	Href     string
	Rel      string
	Type     string
	Hreflang string
	Title    string
	Length   string
}

type Person struct {
	Name  string
	Email string
	URI   string
}

type Category struct {
	Term   string
	Scheme string
	Label  string
}

// Content - тело записи. Src задается для внешнего содержимого.
type Content struct {
	Type  string
	Src   string
	Value string
}
