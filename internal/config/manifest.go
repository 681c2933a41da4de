package config

import (
	"encoding/json"
	"fmt"
	"io"
)

// FieldError reports a required manifest field that is missing or
// empty. It is a pre-flight failure: nothing runs without a complete
// manifest.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("manifest: missing required field %q", e.Field)
}

// GitHubConfig describes access to the source-control API.
type GitHubConfig struct {
	OrgName     string `json:"org_name"`
	RepoName    string `json:"repo_name"`
	APIURL      string `json:"api_url"`
	APIToken    string `json:"api_token"`
	SearchLabel string `json:"search_label"`
}

// OpenAIConfig describes access to the model completion endpoint.
// DataTemplate is the operator-supplied request body (model,
// temperature, and so on); the completion client copies it per request
// and injects the messages field, so concurrent requests never alias
// one another.
type OpenAIConfig struct {
	CompletionsURL string                     `json:"completions_url"`
	UAAURL         string                     `json:"uaa_url"`
	ClientID       string                     `json:"client_id"`
	ClientSecret   string                     `json:"client_secret"`
	DataTemplate   map[string]json.RawMessage `json:"data_template"`
}

// ReportConfig holds the three fixed prompts framing every request.
type ReportConfig struct {
	GroundingPrompt string `json:"grounding_prompt"`
	PullPrompt      string `json:"pull_prompt"`
	OverviewPrompt  string `json:"overview_prompt"`
}

// Manifest is the single JSON document read from stdin at startup.
type Manifest struct {
	GitHub GitHubConfig `json:"github"`
	OpenAI OpenAIConfig `json:"openai"`
	Report ReportConfig `json:"report"`
}

// LoadManifest decodes and validates a manifest from the input stream.
func LoadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: decode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks that every required field is present. A field that
// is present but empty is treated the same as an absent one.
func (m Manifest) Validate() error {
	required := []struct {
		field string
		empty bool
	}{
		{"github.org_name", m.GitHub.OrgName == ""},
		{"github.repo_name", m.GitHub.RepoName == ""},
		{"github.api_url", m.GitHub.APIURL == ""},
		{"github.api_token", m.GitHub.APIToken == ""},
		{"github.search_label", m.GitHub.SearchLabel == ""},
		{"openai.completions_url", m.OpenAI.CompletionsURL == ""},
		{"openai.uaa_url", m.OpenAI.UAAURL == ""},
		{"openai.client_id", m.OpenAI.ClientID == ""},
		{"openai.client_secret", m.OpenAI.ClientSecret == ""},
		{"openai.data_template", m.OpenAI.DataTemplate == nil},
		{"report.grounding_prompt", m.Report.GroundingPrompt == ""},
		{"report.pull_prompt", m.Report.PullPrompt == ""},
		{"report.overview_prompt", m.Report.OverviewPrompt == ""},
	}

	for _, req := range required {
		if req.empty {
			return &FieldError{Field: req.field}
		}
	}
	return nil
}
