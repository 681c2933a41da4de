package github

// GitHub REST API types for the issue-search and pull-request
// endpoints this tool reads.
// See: https://docs.github.com/en/rest/search#search-issues-and-pull-requests

// SearchResponse is the response from GET /search/issues.
type SearchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []SearchItem `json:"items"`
}

// SearchItem is one matched issue record. Issues that are pull
// requests carry the paired pull-request API URL.
type SearchItem struct {
	URL         string          `json:"url"`
	PullRequest PullRequestLink `json:"pull_request"`
}

// PullRequestLink points at the pull-request resource for an issue.
type PullRequestLink struct {
	URL string `json:"url"`
}

// Pull is the pull-request resource. Only the fields the conversation
// fetcher needs are mapped.
type Pull struct {
	User              User   `json:"user"`
	Body              string `json:"body"`
	CommentsURL       string `json:"comments_url"`
	ReviewCommentsURL string `json:"review_comments_url"`
}

// Comment is one entry from either comment stream.
type Comment struct {
	User User   `json:"user"`
	Body string `json:"body"`
}

// User represents a GitHub user in the response.
type User struct {
	Login string `json:"login"`
}

// ErrorResponse represents an error response from the GitHub API.
type ErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}
