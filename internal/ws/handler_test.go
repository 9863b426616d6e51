package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/collab-code-editor/backend/internal/language"
	"github.com/collab-code-editor/backend/internal/state"
)

// mockClient wraps a Client with no real connection; only the send queue
// is observed.
type mockClient struct {
	client *Client
}

func newMockClient(hub *Hub) *mockClient {
	return &mockClient{client: &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}}
}

// next returns the decoded next message on the client's queue, or nil
// after the timeout.
func (mc *mockClient) next(t *testing.T, timeout time.Duration) map[string]string {
	t.Helper()
	select {
	case data := <-mc.client.SendChan():
		var parsed map[string]string
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("Client received invalid JSON: %v", err)
		}
		return parsed
	case <-time.After(timeout):
		return nil
	}
}

// stubExecutor returns a fixed result and records invocations.
type stubExecutor struct {
	mu     sync.Mutex
	result string
	calls  []RunCode
}

func (s *stubExecutor) Execute(ctx context.Context, lang language.ID, source string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, RunCode{Lang: lang, Code: source})
	return s.result
}

func (s *stubExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestHandler(result string) (*Handler, *state.Store, *stubExecutor) {
	registry := language.DefaultRegistry()
	store := state.NewStore(registry)
	exec := &stubExecutor{result: result}
	hub := NewHub()
	return NewHandler(hub, store, registry, exec), store, exec
}

func TestHandler_InitialState(t *testing.T) {
	handler, store, _ := newTestHandler("")

	store.Set(language.Python, "print('seed')")
	store.SetActive(language.Python)
	store.SetLastOutput("seed\n")

	mc := newMockClient(handler.hub)
	handler.hub.Register(mc.client)
	handler.sendInitialState(mc.client)

	msg := mc.next(t, time.Second)
	if msg == nil {
		t.Fatal("No initial state received")
	}
	if msg["type"] != TypeInitialState {
		t.Errorf("Expected initialState, got %q", msg["type"])
	}
	if msg["language"] != "python" {
		t.Errorf("Expected active language python, got %q", msg["language"])
	}
	if msg["code"] != "print('seed')" {
		t.Errorf("Expected stored code for the active language, got %q", msg["code"])
	}
	if msg["output"] != "seed\n" {
		t.Errorf("Expected last output, got %q", msg["output"])
	}
}

func TestHandler_CodeChange(t *testing.T) {
	handler, store, _ := newTestHandler("")

	sender := newMockClient(handler.hub)
	peer := newMockClient(handler.hub)
	handler.hub.Register(sender.client)
	handler.hub.Register(peer.client)

	handler.dispatch(sender.client, CodeChange{Lang: language.C, Code: "int main() {}"})

	if got := store.Get(language.C); got != "int main() {}" {
		t.Errorf("Store not updated, got %q", got)
	}

	msg := peer.next(t, time.Second)
	if msg == nil {
		t.Fatal("Peer did not receive codeUpdate")
	}
	if msg["type"] != TypeCodeUpdate || msg["lang"] != "c" || msg["code"] != "int main() {}" {
		t.Errorf("Unexpected codeUpdate: %v", msg)
	}

	if echo := sender.next(t, 100*time.Millisecond); echo != nil {
		t.Errorf("Sender must not receive its own codeUpdate, got %v", echo)
	}
}

func TestHandler_LanguageChange(t *testing.T) {
	handler, store, _ := newTestHandler("")

	store.Set(language.CPP, "// shared cpp")

	sender := newMockClient(handler.hub)
	peer := newMockClient(handler.hub)
	handler.hub.Register(sender.client)
	handler.hub.Register(peer.client)

	handler.dispatch(sender.client, LanguageChange{Lang: language.CPP})

	if store.Active() != language.CPP {
		t.Errorf("Active language not switched, got %s", store.Active())
	}

	// Both the sender and the peer must converge to the new language.
	for name, mc := range map[string]*mockClient{"sender": sender, "peer": peer} {
		msg := mc.next(t, time.Second)
		if msg == nil {
			t.Fatalf("%s did not receive languageUpdate", name)
		}
		if msg["type"] != TypeLanguageUpdate || msg["lang"] != "cpp" || msg["code"] != "// shared cpp" {
			t.Errorf("%s received unexpected languageUpdate: %v", name, msg)
		}
	}
}

func TestHandler_RunCode(t *testing.T) {
	handler, store, exec := newTestHandler("hi\n")

	sender := newMockClient(handler.hub)
	peer := newMockClient(handler.hub)
	handler.hub.Register(sender.client)
	handler.hub.Register(peer.client)

	handler.dispatch(sender.client, RunCode{Lang: language.Python, Code: "print('hi')"})

	// Every participant, sender included, sees the notice then the result.
	for name, mc := range map[string]*mockClient{"sender": sender, "peer": peer} {
		notice := mc.next(t, time.Second)
		if notice == nil || notice["type"] != TypeOutputUpdate || notice["output"] != ExecutingNotice {
			t.Fatalf("%s expected executing notice, got %v", name, notice)
		}

		result := mc.next(t, 2*time.Second)
		if result == nil || result["type"] != TypeOutputUpdate || result["output"] != "hi\n" {
			t.Fatalf("%s expected output update, got %v", name, result)
		}
	}

	if exec.callCount() != 1 {
		t.Errorf("Expected 1 pipeline invocation, got %d", exec.callCount())
	}

	// The store converges to the run's output for late joiners.
	deadline := time.Now().Add(time.Second)
	for store.LastOutput() != "hi\n" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.LastOutput() != "hi\n" {
		t.Errorf("Last output not stored, got %q", store.LastOutput())
	}
}

func TestHandler_UnknownLanguageIsIgnored(t *testing.T) {
	handler, store, exec := newTestHandler("never")

	sender := newMockClient(handler.hub)
	peer := newMockClient(handler.hub)
	handler.hub.Register(sender.client)
	handler.hub.Register(peer.client)

	activeBefore := store.Active()

	handler.dispatch(sender.client, CodeChange{Lang: "java", Code: "class Main {}"})
	handler.dispatch(sender.client, LanguageChange{Lang: "java"})
	handler.dispatch(sender.client, RunCode{Lang: "java", Code: "class Main {}"})

	if store.Active() != activeBefore {
		t.Errorf("Unknown languageChange mutated active language to %s", store.Active())
	}
	if got := store.Get("java"); got != "" {
		t.Errorf("Unknown codeChange stored text %q", got)
	}
	if exec.callCount() != 0 {
		t.Error("Unknown runCode must not reach the pipeline")
	}
	if msg := peer.next(t, 100*time.Millisecond); msg != nil {
		t.Errorf("Unknown-language message must not broadcast, got %v", msg)
	}
}

func TestHandler_RunDoesNotBlockOtherMessages(t *testing.T) {
	registry := language.DefaultRegistry()
	store := state.NewStore(registry)
	release := make(chan struct{})
	exec := &slowExecutor{release: release, result: "late\n"}
	hub := NewHub()
	handler := NewHandler(hub, store, registry, exec)

	runner := newMockClient(hub)
	editor := newMockClient(hub)
	hub.Register(runner.client)
	hub.Register(editor.client)

	handler.dispatch(runner.client, RunCode{Lang: language.Python, Code: "slow"})

	// Drain the executing notices.
	runner.next(t, time.Second)
	editor.next(t, time.Second)

	// A code edit must be serviced while the run is still in flight.
	handler.dispatch(editor.client, CodeChange{Lang: language.Python, Code: "edited"})
	if got := store.Get(language.Python); got != "edited" {
		t.Errorf("Edit was not serviced during an in-flight run, got %q", got)
	}

	update := runner.next(t, time.Second)
	if update == nil || update["type"] != TypeCodeUpdate {
		t.Fatalf("Expected codeUpdate during the run, got %v", update)
	}

	close(release)
	result := runner.next(t, 2*time.Second)
	if result == nil || result["output"] != "late\n" {
		t.Fatalf("Expected run result after release, got %v", result)
	}
}

type slowExecutor struct {
	release chan struct{}
	result  string
}

func (s *slowExecutor) Execute(ctx context.Context, lang language.ID, source string) string {
	<-s.release
	return s.result
}
