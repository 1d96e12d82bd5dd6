// ScriptedProvider 的 LLM 提供商测试模拟实现。
//
// 支持脚本化应答、错误注入与调用记录。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/insightflow/llm"
)

// --- ScriptedProvider 结构 ---

// ScriptedProvider 按预置脚本逐条返回补全内容。脚本耗尽后返回空串，
// 所有调用都被完整记录。
type ScriptedProvider struct {
	mu sync.Mutex

	script   []string
	requests []*llm.ChatRequest
	err      error
}

// NewScriptedProvider 创建新的 ScriptedProvider
func NewScriptedProvider(script ...string) *ScriptedProvider {
	return &ScriptedProvider{script: script}
}

// WithError 设置返回错误（优先于脚本）
func (p *ScriptedProvider) WithError(err error) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// Append 在脚本尾部追加应答
func (p *ScriptedProvider) Append(script ...string) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, script...)
	return p
}

// --- llm.Provider 实现 ---

func (p *ScriptedProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	content := ""
	if len(p.script) > 0 {
		content = p.script[0]
		p.script = p.script[1:]
	}
	return &llm.ChatResponse{
		Model:   req.Model,
		Choices: []llm.ChatChoice{{Message: llm.Message{Role: llm.RoleAssistant, Content: content}}},
	}, nil
}

func (p *ScriptedProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (p *ScriptedProvider) Name() string { return "scripted" }

// --- 调用记录 ---

// Calls 返回已收到的请求数
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Request 返回第 i 次收到的请求
func (p *ScriptedProvider) Request(i int) *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[i]
}
