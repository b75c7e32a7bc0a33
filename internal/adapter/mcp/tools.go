package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"qualrag/internal/domain"
)

// SearchInput is the input schema for the search_knowledge tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"natural-language question about qualitative research methodology"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	Category string `json:"category,omitempty" jsonschema:"restrict to one of paradigm, tradition, coding_method, journal_guide, concept_theory"`
}

// SearchOutput is the output schema for the search_knowledge tool.
type SearchOutput struct {
	Results []ResultOutput `json:"results"`
}

// ResultOutput is one ranked passage.
type ResultOutput struct {
	ID       string  `json:"id"`
	Body     string  `json:"body"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// StatusInput is the (empty) input schema for the knowledge_status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the knowledge_status tool.
type StatusOutput struct {
	State         string `json:"state"`
	CorpusSize    int    `json:"corpus_size"`
	ModelVersion  string `json:"model_version"`
	CorpusVersion string `json:"corpus_version,omitempty"`
	Persisted     bool   `json:"persisted"`
	Builds        int64  `json:"builds"`
	Cause         string `json:"cause,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the qualitative research methodology knowledge base (paradigms, traditions, coding methods, journal guidance, concept and theory building) for the passages most relevant to a question",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "knowledge_status",
		Description: "Report whether the knowledge index is ready, degraded to keyword matching, or not built yet",
	}, s.handleStatus)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	start := time.Now()
	log := s.logger.With("request_id", uuid.NewString(), "tool", "search_knowledge")

	req := domain.SearchRequest{Query: input.Query, TopK: input.TopK}
	if req.TopK <= 0 {
		req.TopK = s.defaultTopK
	}
	if input.Category != "" {
		cat, err := domain.ParseCategory(input.Category)
		if err != nil {
			log.Info("rejected search", "error", err)
			return nil, SearchOutput{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		req.Category = cat
	}

	results, err := s.engine.Search(ctx, req)
	if err != nil {
		log.Info("search failed", "error", err)
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]ResultOutput, len(results))}
	for i, r := range results {
		output.Results[i] = ResultOutput{
			ID:       r.ID,
			Body:     r.Body,
			Category: string(r.Category),
			Score:    r.Score,
		}
	}

	log.Debug("search served", "top_k", req.TopK, "category", req.Category, "results", len(results), "duration", time.Since(start))
	return nil, output, nil
}

func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	st := s.engine.Status()
	return nil, StatusOutput{
		State:         st.State.String(),
		CorpusSize:    st.CorpusSize,
		ModelVersion:  st.ModelVersion,
		CorpusVersion: st.CorpusVersion,
		Persisted:     st.Persisted,
		Builds:        st.Builds,
		Cause:         st.Cause,
	}, nil
}
