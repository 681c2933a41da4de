package json_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonout "github.com/bkyoung/pull-analyzer/internal/adapter/output/json"
	"github.com/bkyoung/pull-analyzer/internal/domain"
)

func TestWrite_SortedKeysAndIndentation(t *testing.T) {
	var buf bytes.Buffer
	writer := jsonout.NewWriter(&buf)

	err := writer.Write(domain.Report{
		Prompts: domain.Prompts{
			Grounding: "ground",
			Pull:      "pull",
			Overview:  "overview",
		},
		Summary: "all good",
		Pulls: []domain.PullAnalysis{
			{URL: "https://api.example.com/pulls/1", Analysis: "fine"},
		},
	})
	require.NoError(t, err)

	want := `{
    "prompts": {
        "grounding": "ground",
        "overview": "overview",
        "pull": "pull"
    },
    "pulls": [
        {
            "analysis": "fine",
            "url": "https://api.example.com/pulls/1"
        }
    ],
    "summary": "all good"
}
`
	assert.Equal(t, want, buf.String())
}

func TestWrite_EmptyPulls(t *testing.T) {
	var buf bytes.Buffer
	writer := jsonout.NewWriter(&buf)

	err := writer.Write(domain.Report{
		Summary: "nothing to report",
		Pulls:   []domain.PullAnalysis{},
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"pulls": []`)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func TestWrite_StreamErrorSurfaces(t *testing.T) {
	writer := jsonout.NewWriter(failingWriter{})

	err := writer.Write(domain.Report{})

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
