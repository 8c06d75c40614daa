package domain

import "fmt"

// TransportError - сетевая ошибка при обращении к источнику (DNS, соединение, таймаут).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamStatusError - источник ответил статусом вне диапазона 2xx.
type UpstreamStatusError struct {
	URL        string
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d for %s", e.StatusCode, e.URL)
}

// MalformedFeedError - тело ответа не удалось разобрать как Atom-документ.
type MalformedFeedError struct {
	Err error
}

func (e *MalformedFeedError) Error() string {
	return fmt.Sprintf("malformed Atom feed: %v", e.Err)
}

func (e *MalformedFeedError) Unwrap() error { return e.Err }

// RenderError - при построении выдачи отсутствует обязательное поле.
type RenderError struct {
	Kind  Kind
	Field string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("cannot render %s feed: required field %q is empty", e.Kind, e.Field)
}
