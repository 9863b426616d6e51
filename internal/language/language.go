// Package language defines the closed set of supported languages and the
// build plan for each one. A build plan is pure configuration data: adding
// a language means adding one table entry, not new branching code.
package language

import "strings"

// ID identifies a supported language.
type ID string

const (
	JavaScript ID = "javascript"
	Python     ID = "python"
	CPP        ID = "cpp"
	C          ID = "c"
)

// Argv placeholders expanded by Expand before a command is invoked.
const (
	// PlaceholderSource is replaced with the absolute path of the source file.
	PlaceholderSource = "{src}"

	// PlaceholderBinary is replaced with the absolute path of the compiled binary.
	PlaceholderBinary = "{bin}"
)

// Plan describes how to build and run source text for one language.
type Plan struct {
	// Extension is the source file extension, without the leading dot.
	Extension string

	// SourcePrefix is prepended to the run token when naming the source file.
	SourcePrefix string

	// Compile is the compiler argv template. Empty for interpreted languages.
	Compile []string

	// Run is the argv template used to execute the program.
	Run []string

	// Image is the container image used when sandboxed execution is enabled.
	Image string

	// Snippet is the default editor content for the language.
	Snippet string
}

// Compiled reports whether the plan has a compile step.
func (p Plan) Compiled() bool {
	return len(p.Compile) > 0
}

// Registry is the closed set of language build plans.
type Registry struct {
	plans map[ID]Plan
	order []ID
}

// NewRegistry builds a registry from the given plans, preserving order.
func NewRegistry(ids []ID, plans map[ID]Plan) *Registry {
	r := &Registry{
		plans: make(map[ID]Plan, len(plans)),
		order: make([]ID, 0, len(ids)),
	}
	for _, id := range ids {
		if plan, ok := plans[id]; ok {
			r.plans[id] = plan
			r.order = append(r.order, id)
		}
	}
	return r
}

// DefaultRegistry returns the reference deployment's language set:
// two interpreted languages and two compiled C-family languages.
func DefaultRegistry() *Registry {
	return NewRegistry(
		[]ID{JavaScript, Python, CPP, C},
		map[ID]Plan{
			JavaScript: {
				Extension:    "js",
				SourcePrefix: "script-",
				Run:          []string{"node", PlaceholderSource},
				Image:        "node:22-slim",
				Snippet:      "// Write your JavaScript code here...",
			},
			Python: {
				Extension:    "py",
				SourcePrefix: "script-",
				Run:          []string{"python3", PlaceholderSource},
				Image:        "python:3.12-slim",
				Snippet:      "# Write your Python code here...\nprint(\"Hello from Python!\")",
			},
			CPP: {
				Extension:    "cpp",
				SourcePrefix: "main-",
				Compile:      []string{"g++", PlaceholderSource, "-o", PlaceholderBinary},
				Run:          []string{PlaceholderBinary},
				Image:        "gcc:13",
				Snippet:      "// Write your C++ code here...\n#include <iostream>\nint main() {\n    std::cout << \"Hello from C++!\";\n    return 0;\n}",
			},
			C: {
				Extension:    "c",
				SourcePrefix: "main-",
				Compile:      []string{"gcc", PlaceholderSource, "-o", PlaceholderBinary},
				Run:          []string{PlaceholderBinary},
				Image:        "gcc:13",
				Snippet:      "// Write your C code here...\n#include <stdio.h>\nint main() {\n    printf(\"Hello from C!\");\n    return 0;\n}",
			},
		},
	)
}

// Lookup returns the plan for the given language.
func (r *Registry) Lookup(id ID) (Plan, bool) {
	plan, ok := r.plans[id]
	return plan, ok
}

// Known reports whether the language is part of the closed set.
func (r *Registry) Known(id ID) bool {
	_, ok := r.plans[id]
	return ok
}

// IDs returns the language identifiers in registration order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, len(r.order))
	copy(ids, r.order)
	return ids
}

// Default returns the first registered language. It is the active language
// for a freshly started process.
func (r *Registry) Default() ID {
	if len(r.order) == 0 {
		return ""
	}
	return r.order[0]
}

// Expand substitutes the source and binary path placeholders into an argv
// template. The template itself is never modified.
func Expand(template []string, srcPath, binPath string) []string {
	argv := make([]string, len(template))
	for i, arg := range template {
		arg = strings.ReplaceAll(arg, PlaceholderSource, srcPath)
		arg = strings.ReplaceAll(arg, PlaceholderBinary, binPath)
		argv[i] = arg
	}
	return argv
}
