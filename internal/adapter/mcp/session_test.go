package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualrag/internal/domain"
)

func connect(t *testing.T, engine Knowledge) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server, err := NewServer(engine)
	require.NoError(t, err)

	serverT, clientT := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverT)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "qualrag-test", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func decodeStructured(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestSession_ListTools(t *testing.T) {
	cs := connect(t, &mockKnowledge{})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_knowledge", "knowledge_status"}, names)
}

func TestSession_SearchKnowledge(t *testing.T) {
	engine := &mockKnowledge{
		results: []domain.QueryResult{
			{ID: "quality_lincoln_guba", Body: "Lincoln and Guba trustworthiness criteria", Category: domain.CategoryConceptTheory, Score: 0.41},
		},
	}
	cs := connect(t, engine)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "search_knowledge",
		Arguments: map[string]any{
			"query":    "member checking and thick description",
			"top_k":    3,
			"category": "quality",
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out SearchOutput
	decodeStructured(t, res, &out)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "quality_lincoln_guba", out.Results[0].ID)
	assert.Equal(t, "concept_theory", out.Results[0].Category)
	assert.Equal(t, 3, engine.lastReq.TopK)
	assert.Equal(t, domain.CategoryConceptTheory, engine.lastReq.Category)
}

func TestSession_InvalidCategoryIsToolError(t *testing.T) {
	engine := &mockKnowledge{}
	cs := connect(t, engine)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search_knowledge",
		Arguments: map[string]any{"query": "coding", "category": "astrology"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "invalid query")
	assert.Zero(t, engine.calls)
}

func TestSession_KnowledgeStatus(t *testing.T) {
	engine := &mockKnowledge{status: domain.Status{
		State:        domain.StateDegraded,
		CorpusSize:   27,
		ModelVersion: "local-hash-1024",
		Builds:       1,
		Cause:        "model unavailable",
	}}
	cs := connect(t, engine)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "knowledge_status"})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out StatusOutput
	decodeStructured(t, res, &out)
	assert.Equal(t, "degraded", out.State)
	assert.Equal(t, 27, out.CorpusSize)
	assert.Equal(t, int64(1), out.Builds)
	assert.Equal(t, "model unavailable", out.Cause)
}
