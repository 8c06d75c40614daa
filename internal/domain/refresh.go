package domain

import "time"

// Refresh - запись журнала об одном прогоне конвейера.
type Refresh struct {
	ID             int64         `json:"id"`
	Kind           Kind          `json:"kind"`
	SourceURL      string        `json:"source_url"`
	Forced         bool          `json:"forced"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	EntriesTotal   int           `json:"entries_total"`
	EntriesMatched int           `json:"entries_matched"`
	Error          string        `json:"error,omitempty"`
}

// Succeeded сообщает, завершился ли прогон без ошибки.
func (r *Refresh) Succeeded() bool { return r.Error == "" }
