// Package render строит выходные ленты (Atom и RSS) из отфильтрованных записей.
package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// Generator - имя генератора в выходных лентах.
const Generator = "Atom Feed Filter"

// Clock возвращает текущее время. Подменяется в тестах.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// encode сериализует v в XML-документ с заголовком и отступами.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush XML: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
