// Package model defines the shared domain types for the collaborative
// editor backend.
package model

import (
	"time"

	"github.com/collab-code-editor/backend/internal/language"
)

// RunStatus classifies the outcome of one execution pipeline invocation.
type RunStatus string

const (
	RunStatusOK            RunStatus = "ok"
	RunStatusCompileError  RunStatus = "compile_error"
	RunStatusRuntimeError  RunStatus = "runtime_error"
	RunStatusInternalError RunStatus = "internal_error"
)

// RunRecord is the audit record of one execution. The session state itself
// is never persisted; run records exist only as history.
type RunRecord struct {
	Token     string      `json:"token"`
	Language  language.ID `json:"language"`
	Status    RunStatus   `json:"status"`
	Duration  int64       `json:"durationMs"`
	Output    string      `json:"output"`
	CreatedAt time.Time   `json:"createdAt"`
}
