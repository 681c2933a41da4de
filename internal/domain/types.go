package domain

// Role identifies the speaker of a message within a conversation.
type Role string

const (
	// RoleUser marks content authored by the pull request's original requester.
	RoleUser Role = "user"

	// RoleAssistant marks content authored by anyone other than the requester.
	RoleAssistant Role = "assistant"

	// RoleSystem marks instructional content supplied by configuration.
	RoleSystem Role = "system"
)

// Message is one role-tagged entry in a conversation. Content is never
// empty: empty bodies and comments are dropped before a Message exists.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is the ordered textual exchange attached to one pull
// request. URL is the correlation key for the whole pipeline and is
// never regenerated or renamed after construction.
type Conversation struct {
	URL      string    `json:"url"`
	Messages []Message `json:"messages"`
}

// MessageGroup is the unit of work submitted for one completion: a
// named, ordered batch of messages. Name is the conversation URL for
// per-pull groups, or a fixed literal such as "summary".
type MessageGroup struct {
	Name     string
	Messages []Message
}

// Choice is a single completion alternative returned by the model.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Completion is the model response for one message group.
type Completion struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
}

// CompletionResult pairs a completion with the group that produced it.
// GroupName always equals the submitted MessageGroup.Name; concurrent
// completions are unordered, so this key is the sole reassembly
// mechanism.
type CompletionResult struct {
	GroupName  string
	Completion Completion
}

// FirstChoiceContent projects the text of the first choice out of a
// completion result. A completion with no choices is malformed.
func (r CompletionResult) FirstChoiceContent() (string, bool) {
	if len(r.Completion.Choices) == 0 {
		return "", false
	}
	return r.Completion.Choices[0].Message.Content, true
}

// PullAnalysis is the per-pull output of the first report phase.
type PullAnalysis struct {
	URL      string `json:"url"`
	Analysis string `json:"analysis"`
}

// Prompts holds the three fixed instructional texts framing every
// completion request.
type Prompts struct {
	Grounding string `json:"grounding"`
	Pull      string `json:"pull"`
	Overview  string `json:"overview"`
}

// Report is the final document emitted on stdout.
type Report struct {
	Prompts Prompts        `json:"prompts"`
	Summary string         `json:"summary"`
	Pulls   []PullAnalysis `json:"pulls"`
}
