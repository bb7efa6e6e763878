package textgen

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/gamedex/gamedex/pkg/errors"
)

// Ollama generates text by invoking a local `ollama run <model>` process
// with the prompt on stdin. Cancellation of the context kills the process.
type Ollama struct {
	binary string
	model  string
}

// NewOllama creates an Ollama backend for the given model, e.g. "llama3:8b".
func NewOllama(model string) *Ollama {
	return &Ollama{binary: "ollama", model: model}
}

// Name identifies the backend for logging.
func (o *Ollama) Name() string { return "ollama" }

// Generate runs the model and returns its trimmed stdout.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, o.binary, "run", o.model)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", &errors.TimeoutError{
				Operation: "text generation",
				Duration:  "context deadline",
				Message:   o.model,
			}
		}
		return "", &errors.ProcessError{
			Operation: "text generation",
			Command:   o.binary + " run " + o.model,
			Output:    strings.TrimSpace(stderr.String()),
			Err:       err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}
