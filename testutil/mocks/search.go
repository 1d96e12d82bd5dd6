// ScriptedSearch 的搜索提供方测试模拟实现。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/insightflow/tools"
)

// ScriptedSearch 对所有查询返回同一组固定结果，并记录收到的查询。
type ScriptedSearch struct {
	mu sync.Mutex

	results []tools.SearchResult
	queries []string
	err     error
}

// NewScriptedSearch 创建新的 ScriptedSearch
func NewScriptedSearch(results ...tools.SearchResult) *ScriptedSearch {
	return &ScriptedSearch{results: results}
}

// WithError 设置返回错误（优先于结果）
func (s *ScriptedSearch) WithError(err error) *ScriptedSearch {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

// --- tools.SearchProvider 实现 ---

func (s *ScriptedSearch) Search(_ context.Context, query string, _ tools.SearchOptions) ([]tools.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return append([]tools.SearchResult(nil), s.results...), nil
}

func (s *ScriptedSearch) Name() string { return "scripted" }

// Queries 返回已收到的查询
func (s *ScriptedSearch) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}
