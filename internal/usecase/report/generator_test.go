package report_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pull-analyzer/internal/domain"
	"github.com/bkyoung/pull-analyzer/internal/usecase/report"
)

type fakeSearcher struct {
	urls []string
	err  error
}

func (f *fakeSearcher) SearchPullURLs(ctx context.Context) ([]string, error) {
	return f.urls, f.err
}

type fakeFetcher struct {
	err error

	mu      sync.Mutex
	fetched []string
}

func (f *fakeFetcher) FetchConversation(ctx context.Context, pullURL string) (domain.Conversation, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, pullURL)
	f.mu.Unlock()

	if f.err != nil {
		return domain.Conversation{}, f.err
	}
	return domain.Conversation{
		URL: pullURL,
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "body of " + pullURL},
		},
	}, nil
}

// fakeCompleter echoes the group name back as the completion content
// and records every group it sees.
type fakeCompleter struct {
	err   error
	delay func(group domain.MessageGroup) time.Duration

	mu     sync.Mutex
	groups []domain.MessageGroup

	inFlight      atomic.Int32
	maxInFlight   atomic.Int32
	pullsComplete atomic.Int32
}

func (f *fakeCompleter) Complete(ctx context.Context, group domain.MessageGroup) (domain.CompletionResult, error) {
	current := f.inFlight.Add(1)
	for {
		max := f.maxInFlight.Load()
		if current <= max || f.maxInFlight.CompareAndSwap(max, current) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	if f.delay != nil {
		time.Sleep(f.delay(group))
	}

	f.mu.Lock()
	f.groups = append(f.groups, group)
	f.mu.Unlock()

	if f.err != nil {
		return domain.CompletionResult{}, f.err
	}
	if group.Name != "summary" {
		f.pullsComplete.Add(1)
	}

	return domain.CompletionResult{
		GroupName: group.Name,
		Completion: domain.Completion{
			Choices: []domain.Choice{
				{Message: domain.Message{Role: domain.RoleAssistant, Content: "analysis of " + group.Name}},
			},
		},
	}, nil
}

func (f *fakeCompleter) groupByName(name string) (domain.MessageGroup, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, group := range f.groups {
		if group.Name == name {
			return group, true
		}
	}
	return domain.MessageGroup{}, false
}

func testPrompts() domain.Prompts {
	return domain.Prompts{
		Grounding: "you are a reviewer",
		Pull:      "analyze this pull",
		Overview:  "summarize everything",
	}
}

func newGenerator(searcher *fakeSearcher, fetcher *fakeFetcher, completer report.Completer, workers int) *report.Generator {
	return report.NewGenerator(report.Deps{
		Searcher:   searcher,
		Fetcher:    fetcher,
		Completer:  completer,
		Prompts:    testPrompts(),
		MaxWorkers: workers,
	})
}

func pullURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://api.example.com/pulls/%d", i+1)
	}
	return urls
}

func TestGenerate_NoPullsStillSummarizes(t *testing.T) {
	completer := &fakeCompleter{}
	generator := newGenerator(&fakeSearcher{}, &fakeFetcher{}, completer, 4)

	result, err := generator.Generate(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Pulls)
	assert.Equal(t, "analysis of summary", result.Summary)
	assert.Equal(t, testPrompts(), result.Prompts)

	// The summary group carries only the grounding and overview prompts.
	group, ok := completer.groupByName("summary")
	require.True(t, ok)
	assert.Equal(t, []domain.Message{
		{Role: domain.RoleSystem, Content: "you are a reviewer"},
		{Role: domain.RoleUser, Content: "summarize everything"},
	}, group.Messages)
}

func TestGenerate_PullsFollowSearchOrder(t *testing.T) {
	urls := pullURLs(6)

	// Earlier pulls finish later, so arrival order inverts search order.
	completer := &fakeCompleter{
		delay: func(group domain.MessageGroup) time.Duration {
			if group.Name == urls[0] {
				return 30 * time.Millisecond
			}
			if group.Name == urls[1] {
				return 15 * time.Millisecond
			}
			return 0
		},
	}
	generator := newGenerator(&fakeSearcher{urls: urls}, &fakeFetcher{}, completer, 6)

	result, err := generator.Generate(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Pulls, 6)
	for i, url := range urls {
		assert.Equal(t, url, result.Pulls[i].URL)
		assert.Equal(t, "analysis of "+url, result.Pulls[i].Analysis)
	}
}

func TestGenerate_PullGroupFraming(t *testing.T) {
	urls := pullURLs(1)
	completer := &fakeCompleter{}
	generator := newGenerator(&fakeSearcher{urls: urls}, &fakeFetcher{}, completer, 1)

	_, err := generator.Generate(context.Background())
	require.NoError(t, err)

	group, ok := completer.groupByName(urls[0])
	require.True(t, ok)
	assert.Equal(t, []domain.Message{
		{Role: domain.RoleSystem, Content: "you are a reviewer"},
		{Role: domain.RoleUser, Content: "body of " + urls[0]},
		{Role: domain.RoleUser, Content: "analyze this pull"},
	}, group.Messages)
}

func TestGenerate_SummaryWaitsForAllPulls(t *testing.T) {
	urls := pullURLs(5)
	completer := &fakeCompleter{
		delay: func(group domain.MessageGroup) time.Duration {
			if group.Name == "summary" {
				return 0
			}
			return 5 * time.Millisecond
		},
	}

	var pullsDoneAtSummary int32 = -1
	barrier := &barrierCompleter{
		inner: completer,
		onSummary: func() {
			pullsDoneAtSummary = completer.pullsComplete.Load()
		},
	}
	generator := newGenerator(&fakeSearcher{urls: urls}, &fakeFetcher{}, barrier, 2)

	result, err := generator.Generate(context.Background())

	require.NoError(t, err)
	assert.Len(t, result.Pulls, 5)
	assert.Equal(t, int32(5), pullsDoneAtSummary)

	// The summary group holds one assistant message per pull, bracketed
	// by the grounding and overview prompts.
	group, ok := completer.groupByName("summary")
	require.True(t, ok)
	require.Len(t, group.Messages, 7)
	assert.Equal(t, domain.RoleSystem, group.Messages[0].Role)
	for i, url := range urls {
		assert.Equal(t, domain.RoleAssistant, group.Messages[i+1].Role)
		assert.Equal(t, "analysis of "+url, group.Messages[i+1].Content)
	}
	assert.Equal(t, domain.RoleUser, group.Messages[6].Role)
}

// barrierCompleter observes the moment the summary request starts.
type barrierCompleter struct {
	inner     *fakeCompleter
	onSummary func()
}

func (b *barrierCompleter) Complete(ctx context.Context, group domain.MessageGroup) (domain.CompletionResult, error) {
	if group.Name == "summary" && b.onSummary != nil {
		b.onSummary()
	}
	return b.inner.Complete(ctx, group)
}

func TestGenerate_BoundsConcurrency(t *testing.T) {
	urls := pullURLs(12)
	completer := &fakeCompleter{
		delay: func(domain.MessageGroup) time.Duration { return 5 * time.Millisecond },
	}
	generator := newGenerator(&fakeSearcher{urls: urls}, &fakeFetcher{}, completer, 3)

	_, err := generator.Generate(context.Background())

	require.NoError(t, err)
	assert.LessOrEqual(t, completer.maxInFlight.Load(), int32(3))
}

func TestGenerate_SearchErrorIsFatal(t *testing.T) {
	searchErr := errors.New("search exploded")
	generator := newGenerator(&fakeSearcher{err: searchErr}, &fakeFetcher{}, &fakeCompleter{}, 2)

	_, err := generator.Generate(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, searchErr)
}

func TestGenerate_FetchErrorIsFatal(t *testing.T) {
	fetchErr := errors.New("pull vanished")
	fetcher := &fakeFetcher{err: fetchErr}
	generator := newGenerator(&fakeSearcher{urls: pullURLs(3)}, fetcher, &fakeCompleter{}, 2)

	_, err := generator.Generate(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)

	// Every fetch joined before the error surfaced.
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Len(t, fetcher.fetched, 3)
}

func TestGenerate_CompletionErrorIsFatal(t *testing.T) {
	completeErr := errors.New("model unavailable")
	generator := newGenerator(&fakeSearcher{urls: pullURLs(2)}, &fakeFetcher{}, &fakeCompleter{err: completeErr}, 2)

	_, err := generator.Generate(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, completeErr)
}

func TestGenerate_EmptyChoicesIsFatal(t *testing.T) {
	generator := report.NewGenerator(report.Deps{
		Searcher:  &fakeSearcher{urls: pullURLs(1)},
		Fetcher:   &fakeFetcher{},
		Completer: emptyChoiceCompleter{},
		Prompts:   testPrompts(),
	})

	_, err := generator.Generate(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

type emptyChoiceCompleter struct{}

func (emptyChoiceCompleter) Complete(ctx context.Context, group domain.MessageGroup) (domain.CompletionResult, error) {
	return domain.CompletionResult{GroupName: group.Name}, nil
}
