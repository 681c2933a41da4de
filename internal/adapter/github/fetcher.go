package github

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bkyoung/pull-analyzer/internal/domain"
)

// Fetcher turns one pull-request URL into a role-tagged conversation.
// Message order within a conversation is body, then issue comments,
// then review comments, each in server-returned order.
type Fetcher struct {
	client *Client
	logger *zap.Logger
}

// NewFetcher creates a conversation fetcher over the given client.
func NewFetcher(client *Client, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, logger: logger}
}

// FetchConversation retrieves the pull resource to learn the
// requester's login, then fetches both comment streams concurrently.
// Both streams must join before the conversation is complete.
func (f *Fetcher) FetchConversation(ctx context.Context, pullURL string) (domain.Conversation, error) {
	pull, err := f.client.GetPull(ctx, pullURL)
	if err != nil {
		return domain.Conversation{}, err
	}

	requester := pull.User.Login
	f.logger.Debug("fetched pull resource",
		zap.String("url", pullURL),
		zap.String("requester", requester))

	conversation := domain.Conversation{URL: pullURL}

	if pull.Body == "" {
		f.logger.Debug("skipping pull message (empty body)",
			zap.String("url", pullURL),
			zap.String("requester", requester))
	} else {
		conversation.Messages = append(conversation.Messages, domain.Message{
			Role:    domain.RoleUser,
			Content: pull.Body,
		})
	}

	var wg sync.WaitGroup
	var issueComments, reviewComments []domain.Message
	var issueErr, reviewErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		issueComments, issueErr = f.fetchComments(ctx, pull.CommentsURL, requester)
	}()
	go func() {
		defer wg.Done()
		reviewComments, reviewErr = f.fetchComments(ctx, pull.ReviewCommentsURL, requester)
	}()
	wg.Wait()

	if issueErr != nil {
		return domain.Conversation{}, issueErr
	}
	if reviewErr != nil {
		return domain.Conversation{}, reviewErr
	}

	// Concatenation, not interleaving: issue comments first, review
	// comments after, regardless of which fetch finished first.
	conversation.Messages = append(conversation.Messages, issueComments...)
	conversation.Messages = append(conversation.Messages, reviewComments...)

	return conversation, nil
}

// fetchComments retrieves one comment stream and tags each comment by
// author: the requester's own comments are user messages, everyone
// else's are assistant messages. Empty bodies never become messages.
func (f *Fetcher) fetchComments(ctx context.Context, commentsURL, requester string) ([]domain.Message, error) {
	comments, err := f.client.ListComments(ctx, commentsURL)
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for _, comment := range comments {
		if comment.Body == "" {
			f.logger.Debug("skipping comment without body",
				zap.String("author", comment.User.Login))
			continue
		}

		role := domain.RoleAssistant
		if comment.User.Login == requester {
			role = domain.RoleUser
		}

		messages = append(messages, domain.Message{
			Role:    role,
			Content: comment.Body,
		})
	}

	return messages, nil
}
