// =============================================================================
// 📦 InsightFlow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("INSIGHTFLOW").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/insightflow/persistence"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 InsightFlow 的完整配置结构
type Config struct {
	// LLM 大语言模型配置
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Search 联网搜索配置
	Search SearchConfig `yaml:"search" env:"SEARCH"`

	// Notes 研究笔记存储配置
	Notes NotesConfig `yaml:"notes" env:"NOTES"`

	// Checkpoint 检查点存储配置
	Checkpoint CheckpointConfig `yaml:"checkpoint" env:"CHECKPOINT"`

	// Workflow 工作流执行配置
	Workflow WorkflowConfig `yaml:"workflow" env:"WORKFLOW"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// Provider 名称（记录在响应与日志里）
	Provider string `yaml:"provider" env:"PROVIDER"`
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 默认模型
	DefaultModel string `yaml:"default_model" env:"DEFAULT_MODEL"`
	// 按用途指定模型（clarifying/planning/summarization/writing/reviewing）
	Models map[string]string `yaml:"models" env:"-"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// tokenizer 编码名（留空用默认 cl100k_base）
	TokenEncoding string `yaml:"token_encoding" env:"TOKEN_ENCODING"`
}

// SearchConfig 联网搜索配置
type SearchConfig struct {
	// Tavily API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（留空用官方端点）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 每分钟请求上限（负数关闭限流）
	RatePerMinute int `yaml:"rate_per_minute" env:"RATE_PER_MINUTE"`
	// 单次搜索最大结果数
	MaxResults int `yaml:"max_results" env:"MAX_RESULTS"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// NotesConfig 研究笔记存储配置
type NotesConfig struct {
	// 后端类型: memory, file
	Backend string `yaml:"backend" env:"BACKEND"`
	// file 后端的笔记目录
	Dir string `yaml:"dir" env:"DIR"`
}

// CheckpointConfig 检查点存储配置。
// 字段与 persistence.StoreConfig 一一对应，这里只是给它配上 env 覆盖。
type CheckpointConfig struct {
	// 后端类型: memory, file, sqlite, redis
	Type string `yaml:"type" env:"TYPE"`
	// file 后端的基础目录
	BaseDir string `yaml:"base_dir" env:"BASE_DIR"`
	// sqlite 后端的数据库文件
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	// redis 后端配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
	// 实例租约时长
	LeaseTTL time.Duration `yaml:"lease_ttl" env:"LEASE_TTL"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 键前缀
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// WorkflowConfig 工作流执行配置
type WorkflowConfig struct {
	// 审核打回的最大修订轮数，超过即熔断收尾
	MaxRevisions int `yaml:"max_revisions" env:"MAX_REVISIONS"`
	// 单次调用允许的最大节点转移数
	MaxTransitions int `yaml:"max_transitions" env:"MAX_TRANSITIONS"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Prometheus 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	// 指标 HTTP 端口
	Port int `yaml:"port" env:"PORT"`
}

// StoreConfig 把检查点配置转换成 persistence 层的格式。
func (c *CheckpointConfig) StoreConfig() persistence.StoreConfig {
	return persistence.StoreConfig{
		Type:       persistence.StoreType(c.Type),
		BaseDir:    c.BaseDir,
		SQLitePath: c.SQLitePath,
		Redis: persistence.RedisStoreConfig{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			PoolSize:  c.Redis.PoolSize,
			KeyPrefix: c.Redis.KeyPrefix,
		},
		LeaseTTL: c.LeaseTTL,
	}
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "INSIGHTFLOW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.LLM.DefaultModel == "" {
		errs = append(errs, "llm default_model is required")
	}
	if c.Workflow.MaxRevisions <= 0 {
		errs = append(errs, "max_revisions must be positive")
	}
	if c.Workflow.MaxTransitions <= 0 {
		errs = append(errs, "max_transitions must be positive")
	}
	switch c.Notes.Backend {
	case "memory", "file":
	default:
		errs = append(errs, fmt.Sprintf("unknown notes backend %q", c.Notes.Backend))
	}
	switch persistence.StoreType(c.Checkpoint.Type) {
	case persistence.StoreTypeMemory, persistence.StoreTypeFile,
		persistence.StoreTypeSQLite, persistence.StoreTypeRedis:
	default:
		errs = append(errs, fmt.Sprintf("unknown checkpoint type %q", c.Checkpoint.Type))
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		errs = append(errs, "invalid metrics port")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
