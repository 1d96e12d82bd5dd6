// =============================================================================
// 📦 InsightFlow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		LLM:        DefaultLLMConfig(),
		Search:     DefaultSearchConfig(),
		Notes:      DefaultNotesConfig(),
		Checkpoint: DefaultCheckpointConfig(),
		Workflow:   DefaultWorkflowConfig(),
		Log:        DefaultLogConfig(),
		Metrics:    DefaultMetricsConfig(),
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:     "openai",
		BaseURL:      "https://api.openai.com",
		DefaultModel: "gpt-4o-mini",
		Models:       map[string]string{},
		Timeout:      60 * time.Second,
	}
}

// DefaultSearchConfig 返回默认搜索配置
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		RatePerMinute: 30,
		MaxResults:    5,
		Timeout:       15 * time.Second,
	}
}

// DefaultNotesConfig 返回默认笔记存储配置
func DefaultNotesConfig() NotesConfig {
	return NotesConfig{
		Backend: "memory",
		Dir:     "./data/notes",
	}
}

// DefaultCheckpointConfig 返回默认检查点存储配置
func DefaultCheckpointConfig() CheckpointConfig {
	return CheckpointConfig{
		Type:       "memory",
		BaseDir:    "./data/checkpoints",
		SQLitePath: "./data/insightflow.db",
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			DB:        0,
			PoolSize:  10,
			KeyPrefix: "insightflow:",
		},
		LeaseTTL: 5 * time.Minute,
	}
}

// DefaultWorkflowConfig 返回默认工作流配置
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		MaxRevisions:   3,
		MaxTransitions: 256,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "insightflow",
		Port:      9091,
	}
}
