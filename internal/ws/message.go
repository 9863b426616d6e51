package ws

import (
	"encoding/json"
	"fmt"

	"github.com/collab-code-editor/backend/internal/language"
)

// Wire message type tags.
const (
	// Client -> Server
	TypeCodeChange     = "codeChange"
	TypeLanguageChange = "languageChange"
	TypeRunCode        = "runCode"

	// Server -> Client
	TypeInitialState   = "initialState"
	TypeCodeUpdate     = "codeUpdate"
	TypeLanguageUpdate = "languageUpdate"
	TypeOutputUpdate   = "outputUpdate"
)

// Inbound is the closed set of client-to-server messages. Each wire payload
// is decoded exactly once, at the connection boundary, into one of the
// variants; handlers switch over the set exhaustively.
type Inbound interface {
	isInbound()
}

// CodeChange carries a participant's edit to one language's code.
type CodeChange struct {
	Lang language.ID
	Code string
}

// LanguageChange switches the globally active language.
type LanguageChange struct {
	Lang language.ID
}

// RunCode requests server-side execution of a source snapshot.
type RunCode struct {
	Lang language.ID
	Code string
}

func (CodeChange) isInbound()     {}
func (LanguageChange) isInbound() {}
func (RunCode) isInbound()        {}

// DecodeInbound parses a wire payload into its message variant. Unknown
// types and malformed JSON yield an error; the caller drops the message and
// keeps serving the connection.
func DecodeInbound(data []byte) (Inbound, error) {
	var envelope struct {
		Type string      `json:"type"`
		Lang language.ID `json:"lang"`
		Code string      `json:"code"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch envelope.Type {
	case TypeCodeChange:
		return CodeChange{Lang: envelope.Lang, Code: envelope.Code}, nil
	case TypeLanguageChange:
		return LanguageChange{Lang: envelope.Lang}, nil
	case TypeRunCode:
		return RunCode{Lang: envelope.Lang, Code: envelope.Code}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", envelope.Type)
	}
}

// InitialState is sent once to a participant immediately after connecting.
type InitialState struct {
	Type     string      `json:"type"`
	Language language.ID `json:"language"`
	Code     string      `json:"code"`
	Output   string      `json:"output"`
}

// CodeUpdate notifies peers of another participant's edit.
type CodeUpdate struct {
	Type string      `json:"type"`
	Lang language.ID `json:"lang"`
	Code string      `json:"code"`
}

// LanguageUpdate notifies every participant of the new active language and
// its stored code.
type LanguageUpdate struct {
	Type string      `json:"type"`
	Lang language.ID `json:"lang"`
	Code string      `json:"code"`
}

// OutputUpdate carries execution progress and results to every participant.
type OutputUpdate struct {
	Type   string `json:"type"`
	Output string `json:"output"`
}

// NewInitialState builds an initialState message.
func NewInitialState(lang language.ID, code, output string) InitialState {
	return InitialState{Type: TypeInitialState, Language: lang, Code: code, Output: output}
}

// NewCodeUpdate builds a codeUpdate message.
func NewCodeUpdate(lang language.ID, code string) CodeUpdate {
	return CodeUpdate{Type: TypeCodeUpdate, Lang: lang, Code: code}
}

// NewLanguageUpdate builds a languageUpdate message.
func NewLanguageUpdate(lang language.ID, code string) LanguageUpdate {
	return LanguageUpdate{Type: TypeLanguageUpdate, Lang: lang, Code: code}
}

// NewOutputUpdate builds an outputUpdate message.
func NewOutputUpdate(output string) OutputUpdate {
	return OutputUpdate{Type: TypeOutputUpdate, Output: output}
}
