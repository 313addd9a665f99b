package generation_test

import (
	"context"
	"sync"

	"github.com/kdduha/snap2html/backend/internal/generation"
	"github.com/kdduha/snap2html/backend/internal/llm"
	"github.com/stretchr/testify/mock"
)

type mockModel struct {
	mock.Mock
}

func (m *mockModel) Provider() string {
	return "mock"
}

func (m *mockModel) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*llm.Response)
	return resp, args.Error(1)
}

// scriptedGenerator replays results in order and records every request.
type scriptedGenerator struct {
	mu       sync.Mutex
	results  []generation.AttemptResult
	fallback generation.AttemptResult
	requests []generation.Request
}

func (g *scriptedGenerator) Generate(_ context.Context, req generation.Request) generation.AttemptResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if len(g.results) == 0 {
		return g.fallback
	}
	res := g.results[0]
	g.results = g.results[1:]
	return res
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type generatorFunc func(ctx context.Context, req generation.Request) generation.AttemptResult

func (f generatorFunc) Generate(ctx context.Context, req generation.Request) generation.AttemptResult {
	return f(ctx, req)
}

const testImage = "data:image/png;base64,AAAA"

func textResponse(text string, reason llm.FinishReason) *llm.Response {
	return &llm.Response{
		Text:            text,
		FinishReason:    reason,
		RawFinishReason: string(reason),
	}
}
