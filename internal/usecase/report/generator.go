package report

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bkyoung/pull-analyzer/internal/domain"
)

// summaryGroupName keys the single phase-2 completion request.
const summaryGroupName = "summary"

// Searcher lists the pull-request URLs to analyze.
type Searcher interface {
	SearchPullURLs(ctx context.Context) ([]string, error)
}

// ConversationFetcher turns one pull URL into a conversation.
type ConversationFetcher interface {
	FetchConversation(ctx context.Context, pullURL string) (domain.Conversation, error)
}

// Completer issues one model-completion request per message group.
type Completer interface {
	Complete(ctx context.Context, group domain.MessageGroup) (domain.CompletionResult, error)
}

// Deps captures the collaborators for the report generator.
type Deps struct {
	Searcher  Searcher
	Fetcher   ConversationFetcher
	Completer Completer
	Prompts   domain.Prompts

	// MaxWorkers bounds in-flight requests within each fan-out phase.
	// Zero or negative means one worker per item.
	MaxWorkers int

	Logger *zap.Logger
}

// Generator drives the two-phase completion pipeline: a bounded
// concurrent fan-out of per-pull analyses, then a single summary
// completion over all of them. Phase 2 never starts before every
// phase-1 task has joined.
type Generator struct {
	deps Deps
}

// NewGenerator creates a report generator.
func NewGenerator(deps Deps) *Generator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Generator{deps: deps}
}

// Generate produces the full report.
func (g *Generator) Generate(ctx context.Context) (domain.Report, error) {
	pulls, err := g.buildPullsReport(ctx)
	if err != nil {
		return domain.Report{}, err
	}

	summary, err := g.buildSummaryReport(ctx, pulls)
	if err != nil {
		return domain.Report{}, err
	}

	return domain.Report{
		Prompts: g.deps.Prompts,
		Summary: summary,
		Pulls:   pulls,
	}, nil
}

// buildPullsReport runs phase 1: fetch every conversation, build one
// message group per pull, complete each group, and project the first
// choice of each completion into a PullAnalysis. Output order follows
// search order, never completion arrival order.
func (g *Generator) buildPullsReport(ctx context.Context) ([]domain.PullAnalysis, error) {
	urls, err := g.deps.Searcher.SearchPullURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("search pull requests: %w", err)
	}
	g.deps.Logger.Info("pull requests found", zap.Int("count", len(urls)))

	conversations, err := g.fetchConversations(ctx, urls)
	if err != nil {
		return nil, err
	}

	groups := make([]domain.MessageGroup, 0, len(conversations))
	for _, conversation := range conversations {
		groups = append(groups, g.pullGroup(conversation))
	}

	resultsByName, err := g.completeGroups(ctx, groups)
	if err != nil {
		return nil, err
	}

	pulls := make([]domain.PullAnalysis, 0, len(urls))
	for _, url := range urls {
		result, ok := resultsByName[url]
		if !ok {
			return nil, fmt.Errorf("no completion returned for %s", url)
		}
		analysis, ok := result.FirstChoiceContent()
		if !ok {
			return nil, fmt.Errorf("completion for %s has no choices", url)
		}
		pulls = append(pulls, domain.PullAnalysis{URL: url, Analysis: analysis})
	}

	g.deps.Logger.Info("pulls analyzed", zap.Int("count", len(pulls)))
	return pulls, nil
}

// buildSummaryReport runs phase 2: one group named "summary" holding
// the grounding prompt, one assistant message per analysis in pull
// order, and the overview prompt.
func (g *Generator) buildSummaryReport(ctx context.Context, pulls []domain.PullAnalysis) (string, error) {
	messages := make([]domain.Message, 0, len(pulls)+2)
	messages = append(messages, domain.Message{
		Role:    domain.RoleSystem,
		Content: g.deps.Prompts.Grounding,
	})
	for _, pull := range pulls {
		messages = append(messages, domain.Message{
			Role:    domain.RoleAssistant,
			Content: pull.Analysis,
		})
	}
	messages = append(messages, domain.Message{
		Role:    domain.RoleUser,
		Content: g.deps.Prompts.Overview,
	})

	g.deps.Logger.Debug("summary group built", zap.Int("total_messages", len(messages)))

	result, err := g.deps.Completer.Complete(ctx, domain.MessageGroup{
		Name:     summaryGroupName,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("summary completion: %w", err)
	}

	summary, ok := result.FirstChoiceContent()
	if !ok {
		return "", fmt.Errorf("summary completion has no choices")
	}
	return summary, nil
}

// pullGroup frames one conversation for analysis: grounding prompt,
// the conversation, then the pull prompt appended last.
func (g *Generator) pullGroup(conversation domain.Conversation) domain.MessageGroup {
	messages := make([]domain.Message, 0, len(conversation.Messages)+2)
	messages = append(messages, domain.Message{
		Role:    domain.RoleSystem,
		Content: g.deps.Prompts.Grounding,
	})
	messages = append(messages, conversation.Messages...)
	messages = append(messages, domain.Message{
		Role:    domain.RoleUser,
		Content: g.deps.Prompts.Pull,
	})

	return domain.MessageGroup{Name: conversation.URL, Messages: messages}
}

// fetchConversations fans out conversation fetches with bounded
// concurrency. All tasks join before any error is reported, so a
// failure never leaves stray goroutines writing results.
func (g *Generator) fetchConversations(ctx context.Context, urls []string) ([]domain.Conversation, error) {
	type fetchResult struct {
		index int
		conv  domain.Conversation
		err   error
	}

	var wg sync.WaitGroup
	sem := g.semaphore(len(urls))
	results := make(chan fetchResult, len(urls))

	for i, url := range urls {
		wg.Add(1)
		go func(index int, pullURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			conv, err := g.deps.Fetcher.FetchConversation(ctx, pullURL)
			results <- fetchResult{index: index, conv: conv, err: err}
		}(i, url)
	}

	wg.Wait()
	close(results)

	conversations := make([]domain.Conversation, len(urls))
	for result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("fetch conversation %s: %w", urls[result.index], result.err)
		}
		conversations[result.index] = result.conv
	}

	return conversations, nil
}

// completeGroups fans out completion requests with bounded concurrency
// and reassembles the unordered results by group name.
func (g *Generator) completeGroups(ctx context.Context, groups []domain.MessageGroup) (map[string]domain.CompletionResult, error) {
	type completeResult struct {
		index  int
		result domain.CompletionResult
		err    error
	}

	var wg sync.WaitGroup
	sem := g.semaphore(len(groups))
	results := make(chan completeResult, len(groups))

	for i, group := range groups {
		wg.Add(1)
		go func(index int, group domain.MessageGroup) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := g.deps.Completer.Complete(ctx, group)
			results <- completeResult{index: index, result: result, err: err}
		}(i, group)
	}

	wg.Wait()
	close(results)

	byName := make(map[string]domain.CompletionResult, len(groups))
	for result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("complete group %s: %w", groups[result.index].Name, result.err)
		}
		byName[result.result.GroupName] = result.result
	}

	return byName, nil
}

// semaphore sizes the per-phase concurrency gate.
func (g *Generator) semaphore(items int) chan struct{} {
	workers := g.deps.MaxWorkers
	if workers <= 0 || workers > items {
		workers = items
	}
	if workers < 1 {
		workers = 1
	}
	return make(chan struct{}, workers)
}
