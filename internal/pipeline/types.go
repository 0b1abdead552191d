// Package pipeline turns a prompt into a component through a chain of
// progressively more generic strategies and records every result.
package pipeline

import (
	"time"

	"github.com/kalambet/magic/internal/history"
)

// Request is one generation request.
type Request struct {
	Prompt           string `json:"prompt"`
	SearchQuery      string `json:"searchQuery,omitempty"`
	CurrentFilePath  string `json:"currentFilePath,omitempty"`
	ProjectDirectory string `json:"projectDirectory,omitempty"`
}

// Metadata describes how a component was produced.
type Metadata struct {
	Source             string       `json:"source"`
	Timestamp          time.Time    `json:"timestamp"`
	ContextAware       bool         `json:"contextAware,omitempty"`
	CompatibilityScore float64      `json:"compatibilityScore,omitempty"`
	TemplateID         string       `json:"templateId,omitempty"`
	Type               history.Type `json:"type"`
	Tags               []string     `json:"tags,omitempty"`
	Model              string       `json:"model,omitempty"`
	Note               string       `json:"note,omitempty"`
	HistoryID          string       `json:"historyId,omitempty"`
	Version            int          `json:"version,omitempty"`
}

// Component is the result of Generate. Success is always true; degraded
// results are told apart by Metadata.Source and Metadata.Note.
type Component struct {
	Success     bool     `json:"success"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Explanation string   `json:"explanation,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

// Status is the phase reported to status callbacks.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusGenerating Status = "generating"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// StatusEvent is emitted to the WithStatus callback.
type StatusEvent struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}
