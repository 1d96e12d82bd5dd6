package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingProvider records the last request and returns a canned answer.
type capturingProvider struct {
	lastReq *ChatRequest
}

func (p *capturingProvider) Completion(_ context.Context, req *ChatRequest) (*ChatResponse, error) {
	p.lastReq = req
	return &ChatResponse{
		Model: req.Model,
		Choices: []ChatChoice{
			{Message: Message{Role: RoleAssistant, Content: "ok"}},
		},
	}, nil
}

func (p *capturingProvider) HealthCheck(context.Context) (*HealthStatus, error) {
	return &HealthStatus{Healthy: true}, nil
}

func (p *capturingProvider) Name() string { return "capturing" }

func TestModelRouterSelection(t *testing.T) {
	router := NewModelRouter(&capturingProvider{}, map[Purpose]string{
		PurposePlanning: "deepseek-reasoner",
		PurposeWriting:  "deepseek-chat",
	}, "gpt-4o-mini", nil)

	assert.Equal(t, "deepseek-reasoner", router.Model(PurposePlanning))
	assert.Equal(t, "deepseek-chat", router.Model(PurposeWriting))
	assert.Equal(t, "gpt-4o-mini", router.Model(PurposeReviewing), "unconfigured purpose falls back")
}

func TestModelRouterComplete(t *testing.T) {
	provider := &capturingProvider{}
	router := NewModelRouter(provider, map[Purpose]string{
		PurposeReviewing: "deepseek-reasoner",
	}, "deepseek-chat", nil)

	resp, err := router.Complete(context.Background(), PurposeReviewing,
		[]Message{{Role: RoleUser, Content: "审核这份报告"}}, 1024)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())

	require.NotNil(t, provider.lastReq)
	assert.Equal(t, "deepseek-reasoner", provider.lastReq.Model)
	assert.Equal(t, 1024, provider.lastReq.MaxTokens)
	assert.Equal(t, purposeTemperatures[PurposeReviewing], provider.lastReq.Temperature,
		"review calls run cold for consistent verdicts")
}
