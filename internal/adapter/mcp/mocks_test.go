package mcp

import (
	"context"

	"qualrag/internal/domain"
)

type mockKnowledge struct {
	results []domain.QueryResult
	err     error
	status  domain.Status
	lastReq domain.SearchRequest
	calls   int
}

func (m *mockKnowledge) Search(_ context.Context, req domain.SearchRequest) ([]domain.QueryResult, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockKnowledge) Status() domain.Status {
	return m.status
}
