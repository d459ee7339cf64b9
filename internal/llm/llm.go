package llm

import (
	"context"
)

// Completer turns a single text prompt into a text response. Callers must
// treat a nil Completer as "no model configured" and fall back to their
// deterministic path; responses are not guaranteed to be well-formed even
// when the prompt asks for JSON.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
