package ws

import (
	"encoding/json"
	"testing"

	"github.com/collab-code-editor/backend/internal/language"
)

func TestDecodeInbound(t *testing.T) {
	t.Run("codeChange", func(t *testing.T) {
		msg, err := DecodeInbound([]byte(`{"type":"codeChange","lang":"python","code":"print(1)"}`))
		if err != nil {
			t.Fatalf("DecodeInbound failed: %v", err)
		}
		cc, ok := msg.(CodeChange)
		if !ok {
			t.Fatalf("Expected CodeChange, got %T", msg)
		}
		if cc.Lang != language.Python || cc.Code != "print(1)" {
			t.Errorf("Unexpected payload: %+v", cc)
		}
	})

	t.Run("languageChange", func(t *testing.T) {
		msg, err := DecodeInbound([]byte(`{"type":"languageChange","lang":"cpp"}`))
		if err != nil {
			t.Fatalf("DecodeInbound failed: %v", err)
		}
		lc, ok := msg.(LanguageChange)
		if !ok {
			t.Fatalf("Expected LanguageChange, got %T", msg)
		}
		if lc.Lang != language.CPP {
			t.Errorf("Unexpected payload: %+v", lc)
		}
	})

	t.Run("runCode", func(t *testing.T) {
		msg, err := DecodeInbound([]byte(`{"type":"runCode","lang":"c","code":"int main(){}"}`))
		if err != nil {
			t.Fatalf("DecodeInbound failed: %v", err)
		}
		rc, ok := msg.(RunCode)
		if !ok {
			t.Fatalf("Expected RunCode, got %T", msg)
		}
		if rc.Lang != language.C || rc.Code != "int main(){}" {
			t.Errorf("Unexpected payload: %+v", rc)
		}
	})

	t.Run("unknown type is an error", func(t *testing.T) {
		if _, err := DecodeInbound([]byte(`{"type":"resize","rows":24}`)); err == nil {
			t.Error("Expected an error for an unknown message type")
		}
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		if _, err := DecodeInbound([]byte(`{"type":`)); err == nil {
			t.Error("Expected an error for malformed JSON")
		}
	})
}

func TestOutboundWireShapes(t *testing.T) {
	t.Run("initialState", func(t *testing.T) {
		data, err := json.Marshal(NewInitialState(language.Python, "print(1)", "1\n"))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}

		var parsed map[string]string
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if parsed["type"] != TypeInitialState {
			t.Errorf("Expected type initialState, got %q", parsed["type"])
		}
		if parsed["language"] != "python" || parsed["code"] != "print(1)" || parsed["output"] != "1\n" {
			t.Errorf("Unexpected wire shape: %v", parsed)
		}
	})

	t.Run("codeUpdate", func(t *testing.T) {
		data, _ := json.Marshal(NewCodeUpdate(language.C, "x"))
		var parsed map[string]string
		json.Unmarshal(data, &parsed)
		if parsed["type"] != TypeCodeUpdate || parsed["lang"] != "c" || parsed["code"] != "x" {
			t.Errorf("Unexpected wire shape: %v", parsed)
		}
	})

	t.Run("languageUpdate", func(t *testing.T) {
		data, _ := json.Marshal(NewLanguageUpdate(language.CPP, "y"))
		var parsed map[string]string
		json.Unmarshal(data, &parsed)
		if parsed["type"] != TypeLanguageUpdate || parsed["lang"] != "cpp" || parsed["code"] != "y" {
			t.Errorf("Unexpected wire shape: %v", parsed)
		}
	})

	t.Run("outputUpdate", func(t *testing.T) {
		data, _ := json.Marshal(NewOutputUpdate("done"))
		var parsed map[string]string
		json.Unmarshal(data, &parsed)
		if parsed["type"] != TypeOutputUpdate || parsed["output"] != "done" {
			t.Errorf("Unexpected wire shape: %v", parsed)
		}
	})
}
