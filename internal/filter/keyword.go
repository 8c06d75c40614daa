// Package filter отбирает записи ленты по ключевому слову.
package filter

import (
	"strings"

	"feedfilter/internal/domain"
)

// Keyword - регистронезависимый фильтр по подстроке в заголовке или аннотации записи.
// Совпадение ищется по подстроке, а не по границам слов.
type Keyword struct {
	word string
}

func NewKeyword(word string) *Keyword {
	return &Keyword{word: strings.ToLower(word)}
}

// Word возвращает ключевое слово в нижнем регистре.
func (k *Keyword) Word() string { return k.word }

// Matches сообщает, содержит ли заголовок или аннотация записи ключевое слово.
// Отсутствующая аннотация считается пустой строкой.
func (k *Keyword) Matches(e *domain.Entry) bool {
	return strings.Contains(strings.ToLower(e.Title), k.word) ||
		strings.Contains(strings.ToLower(e.Summary), k.word)
}

// Apply возвращает подходящие записи в исходном порядке. Входной срез не изменяется.
func (k *Keyword) Apply(entries []domain.Entry) []domain.Entry {
	matched := make([]domain.Entry, 0, len(entries))
	for i := range entries {
		if k.Matches(&entries[i]) {
			matched = append(matched, entries[i])
		}
	}
	return matched
}
