// Package executor implements the execution pipeline: it takes untrusted
// source text, compiles it when the language requires it, runs it under
// hard wall-clock bounds, and guarantees that every artifact created for a
// run is removed before the pipeline returns, on every exit path.
package executor

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/collab-code-editor/backend/internal/language"
	"github.com/collab-code-editor/backend/internal/model"
	"github.com/collab-code-editor/backend/internal/runlog"
)

const (
	// DefaultScratchDir is the shared working directory for run artifacts,
	// relative to the process working directory.
	DefaultScratchDir = "temp_code_executions"

	// DefaultCompileTimeout bounds the compile stage.
	DefaultCompileTimeout = 5 * time.Second

	// DefaultRunTimeout bounds the run stage.
	DefaultRunTimeout = 10 * time.Second

	// NoOutputSentinel is returned for a successful run that captured no
	// text, so clients can distinguish "ran, no output" from "did not run".
	NoOutputSentinel = "Execution completed with no output."
)

// Config controls one Pipeline.
type Config struct {
	ScratchDir     string
	CompileTimeout time.Duration
	RunTimeout     time.Duration
	CaptureLimit   int

	// MaxConcurrentRuns caps in-flight executions when positive. Zero
	// reproduces the reference behavior: no admission control.
	MaxConcurrentRuns int

	// TranscriptDir enables per-run JSON-Lines transcripts when non-empty.
	TranscriptDir string
}

// Recorder receives the audit record of each completed run.
type Recorder interface {
	Record(ctx context.Context, rec model.RunRecord) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, rec model.RunRecord) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, rec model.RunRecord) error {
	return f(ctx, rec)
}

// Pipeline executes source text per the registry's build plans. Execute is
// total: every failure inside the pipeline is mapped to a descriptive
// output string, never a raised error.
type Pipeline struct {
	registry *language.Registry
	runner   Runner
	cfg      Config
	slots    chan struct{}
	recorder Recorder
}

// NewPipeline creates a Pipeline. Zero-valued config fields fall back to
// the package defaults.
func NewPipeline(registry *language.Registry, runner Runner, cfg Config) *Pipeline {
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = DefaultScratchDir
	}
	if cfg.CompileTimeout <= 0 {
		cfg.CompileTimeout = DefaultCompileTimeout
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.CaptureLimit <= 0 {
		cfg.CaptureLimit = DefaultCaptureLimit
	}

	p := &Pipeline{
		registry: registry,
		runner:   runner,
		cfg:      cfg,
	}
	if cfg.MaxConcurrentRuns > 0 {
		p.slots = make(chan struct{}, cfg.MaxConcurrentRuns)
	}
	return p
}

// SetRecorder installs the run history recorder.
func (p *Pipeline) SetRecorder(r Recorder) {
	p.recorder = r
}

// NewRunToken returns a unique identifier for one execution's artifact set.
// Tokens name every file the run creates and scope its cleanup.
func NewRunToken() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Execute runs the pipeline for one (language, source) pair and returns the
// captured output, the no-output sentinel, or an "Error: ..." description.
// It never returns an error and never panics past its boundary.
func (p *Pipeline) Execute(ctx context.Context, lang language.ID, source string) (result string) {
	start := time.Now()
	token := NewRunToken()
	status := model.RunStatusInternalError

	defer func() {
		if r := recover(); r != nil {
			log.Printf("run %s: panic in execution pipeline: %v", token, r)
			result = fmt.Sprintf("Error: internal failure: %v", r)
			status = model.RunStatusInternalError
		}
		p.record(ctx, token, lang, status, time.Since(start), result)
	}()

	result, status = p.run(ctx, token, lang, source)
	return result
}

func (p *Pipeline) run(ctx context.Context, token string, lang language.ID, source string) (string, model.RunStatus) {
	plan, ok := p.registry.Lookup(lang)
	if !ok {
		return fmt.Sprintf("Error: unsupported language: %s", lang), model.RunStatusInternalError
	}

	if p.slots != nil {
		select {
		case p.slots <- struct{}{}:
			defer func() { <-p.slots }()
		case <-ctx.Done():
			return fmt.Sprintf("Error: %v", ctx.Err()), model.RunStatusInternalError
		}
	}

	if err := os.MkdirAll(p.cfg.ScratchDir, 0o755); err != nil {
		return fmt.Sprintf("Error: failed to prepare scratch directory: %v", err), model.RunStatusInternalError
	}

	// Artifact paths must be absolute: exec resolves a relative command path
	// against the working directory, which is the scratch directory itself.
	scratch, err := filepath.Abs(p.cfg.ScratchDir)
	if err != nil {
		return fmt.Sprintf("Error: failed to resolve scratch directory: %v", err), model.RunStatusInternalError
	}

	// Cleanup is scoped strictly to this run's token: a directory-wide wipe
	// would race with concurrent runs sharing the scratch directory.
	defer p.cleanup(token)

	transcript := p.newTranscript(token, lang)
	defer transcript.close()

	srcPath := filepath.Join(scratch, plan.SourcePrefix+token+"."+plan.Extension)
	binPath := filepath.Join(scratch, "bin-"+token)

	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return fmt.Sprintf("Error: failed to write source file: %v", err), model.RunStatusInternalError
	}
	transcript.event(runlog.EventSource, source)

	if plan.Compiled() {
		argv := language.Expand(plan.Compile, srcPath, binPath)
		transcript.event(runlog.EventCompile, strings.Join(argv, " "))

		res, err := p.runner.Run(ctx, CommandSpec{
			Argv:         argv,
			Dir:          p.cfg.ScratchDir,
			Timeout:      p.cfg.CompileTimeout,
			Image:        plan.Image,
			CaptureLimit: p.cfg.CaptureLimit,
		})
		if err != nil || res.ExitCode != 0 {
			cerr := &CompileError{Diagnostic: diagnostic(res, err)}
			transcript.event(runlog.EventDone, string(model.RunStatusCompileError))
			return "Error: " + cerr.Error(), model.RunStatusCompileError
		}
	}

	argv := language.Expand(plan.Run, srcPath, binPath)
	transcript.event(runlog.EventRun, strings.Join(argv, " "))

	res, err := p.runner.Run(ctx, CommandSpec{
		Argv:         argv,
		Dir:          p.cfg.ScratchDir,
		Timeout:      p.cfg.RunTimeout,
		Image:        plan.Image,
		CaptureLimit: p.cfg.CaptureLimit,
	})
	if err != nil || res.ExitCode != 0 {
		rerr := &RuntimeError{Diagnostic: diagnostic(res, err)}
		transcript.event(runlog.EventDone, string(model.RunStatusRuntimeError))
		return "Error: " + rerr.Error(), model.RunStatusRuntimeError
	}

	output := res.Stdout
	if output == "" {
		output = res.Stderr
	}
	if output == "" {
		output = NoOutputSentinel
	}

	transcript.event(runlog.EventOutput, output)
	transcript.event(runlog.EventDone, string(model.RunStatusOK))
	return output, model.RunStatusOK
}

// diagnostic prefers captured stderr, falls back to stdout, then to the
// invocation's own error message.
func diagnostic(res CommandResult, err error) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	if res.Stdout != "" {
		return res.Stdout
	}
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("exit status %d", res.ExitCode)
}

// cleanup removes every scratch entry whose name contains the run token.
// It runs on every exit path. Its own failures are logged and never
// escalated: a cleanup error must not mask the run's real result.
func (p *Pipeline) cleanup(token string) {
	entries, err := os.ReadDir(p.cfg.ScratchDir)
	if err != nil {
		log.Printf("run %s: failed to scan scratch directory: %v", token, err)
		return
	}

	for _, entry := range entries {
		if !strings.Contains(entry.Name(), token) {
			continue
		}
		if err := os.Remove(filepath.Join(p.cfg.ScratchDir, entry.Name())); err != nil {
			log.Printf("run %s: failed to remove artifact %s: %v", token, entry.Name(), err)
		}
	}
}

func (p *Pipeline) record(ctx context.Context, token string, lang language.ID, status model.RunStatus, elapsed time.Duration, output string) {
	if p.recorder == nil {
		return
	}

	rec := model.RunRecord{
		Token:     token,
		Language:  lang,
		Status:    status,
		Duration:  elapsed.Milliseconds(),
		Output:    output,
		CreatedAt: time.Now(),
	}
	if err := p.recorder.Record(ctx, rec); err != nil {
		log.Printf("run %s: failed to record run history: %v", token, err)
	}
}

// transcript is a nil-safe wrapper around the optional run logger.
type transcript struct {
	logger *runlog.Logger
}

func (p *Pipeline) newTranscript(token string, lang language.ID) transcript {
	if p.cfg.TranscriptDir == "" {
		return transcript{}
	}

	if err := os.MkdirAll(p.cfg.TranscriptDir, 0o755); err != nil {
		log.Printf("run %s: failed to create transcript directory: %v", token, err)
		return transcript{}
	}

	logger, err := runlog.New(filepath.Join(p.cfg.TranscriptDir, "run-"+token+".jsonl"))
	if err != nil {
		log.Printf("run %s: %v", token, err)
		return transcript{}
	}
	if err := logger.WriteHeader(token, string(lang)); err != nil {
		log.Printf("run %s: %v", token, err)
	}
	return transcript{logger: logger}
}

func (t transcript) event(kind, data string) {
	if t.logger == nil {
		return
	}
	if err := t.logger.Write(kind, data); err != nil {
		log.Printf("transcript: %v", err)
	}
}

func (t transcript) close() {
	if t.logger != nil {
		t.logger.Close()
	}
}
