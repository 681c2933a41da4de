package openai

import (
	"encoding/json"
	"fmt"

	"github.com/bkyoung/pull-analyzer/internal/domain"
)

// RequestTemplate is the operator-supplied completion request body
// (model, temperature, and so on) with one designated mutable field:
// messages. Payload builds a fresh document per request, so concurrent
// completions never alias a shared template.
type RequestTemplate struct {
	fields map[string]json.RawMessage
}

// NewRequestTemplate wraps the manifest's data_template fields.
func NewRequestTemplate(fields map[string]json.RawMessage) RequestTemplate {
	return RequestTemplate{fields: fields}
}

// Payload returns the request body with messages injected. Any
// messages entry already present in the template is replaced.
func (t RequestTemplate) Payload(messages []domain.Message) ([]byte, error) {
	body := make(map[string]json.RawMessage, len(t.fields)+1)
	for key, value := range t.fields {
		body[key] = value
	}

	encoded, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshal messages: %w", err)
	}
	body["messages"] = encoded

	return json.Marshal(body)
}
