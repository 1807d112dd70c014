// Package classify turns cleaned email text into a validated classification
// payload. The language understanding itself is delegated to an external
// text model behind the Client interface; this package owns the prompt, the
// JSON envelope handling, and the strict payload contract.
package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobtrail/jobtrail-cli/internal/model"
)

// Client is the text-model dependency. GenerateJSON returns the model's raw
// response for a prompt; implementations surface quota exhaustion as their
// own sentinel error, which Analyze passes through untouched.
type Client interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Analyzer classifies one message at a time.
type Analyzer struct {
	client Client
}

// NewAnalyzer returns an Analyzer backed by client.
func NewAnalyzer(client Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze classifies the cleaned text of one email. Errors are either the
// client's own (transport, quota sentinel) or a *ValidationError when the
// model's output violates the payload contract.
func (a *Analyzer) Analyze(ctx context.Context, cleanText string) (*model.Payload, error) {
	prompt := analysisPrompt + "\n\nEMAIL CONTENT:\n" + cleanText

	raw, err := a.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	payload, err := ParsePayload(raw)
	if err != nil {
		zap.L().Debug("classify: payload rejected",
			zap.String("reason", reasonOf(err)),
		)
		return nil, err
	}
	return payload, nil
}
