package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// 环境变量名
const (
	// EnvHTTPPort HTTP 端口
	EnvHTTPPort = "CELLBYTE_HTTP_PORT"
	// EnvDBPath 数据库路径
	EnvDBPath = "CELLBYTE_DB_PATH"
	// EnvLLMBaseURL Chat API 地址
	EnvLLMBaseURL = "CELLBYTE_LLM_BASE_URL"
	// EnvLLMAPIKey Chat API 密钥
	EnvLLMAPIKey = "CELLBYTE_LLM_API_KEY"
	// EnvLLMModel Chat 模型
	EnvLLMModel = "CELLBYTE_LLM_MODEL"
	// EnvEmbeddingBaseURL Embedding API 地址
	EnvEmbeddingBaseURL = "CELLBYTE_EMBEDDING_BASE_URL"
	// EnvEmbeddingAPIKey Embedding API 密钥
	EnvEmbeddingAPIKey = "CELLBYTE_EMBEDDING_API_KEY"
	// EnvEmbeddingModel Embedding 模型
	EnvEmbeddingModel = "CELLBYTE_EMBEDDING_MODEL"
)

// ConfigFileName 数据目录下的可选配置文件名
const ConfigFileName = "config.yaml"

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTPPort 固定端口，同时用于单例锁
	HTTPPort string `yaml:"http_port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path sqlite 数据库路径，留空使用 <datadir>/cellbyte.db
	Path string `yaml:"path"`
}

// AIConfig LLM 与 Embedding 服务配置
type AIConfig struct {
	// ChatBaseURL OpenAI 兼容 Chat API 地址
	ChatBaseURL string `yaml:"chat_base_url"`
	// ChatAPIKey Chat API 密钥
	ChatAPIKey string `yaml:"chat_api_key"`
	// ChatModel Chat 模型名
	ChatModel string `yaml:"chat_model"`
	// EmbeddingBaseURL Embedding API 地址
	EmbeddingBaseURL string `yaml:"embedding_base_url"`
	// EmbeddingAPIKey Embedding API 密钥，留空复用 ChatAPIKey
	EmbeddingAPIKey string `yaml:"embedding_api_key"`
	// EmbeddingModel Embedding 模型名
	EmbeddingModel string `yaml:"embedding_model"`
}

// NewConfig 创建配置
//
// 优先级：环境变量 > <datadir>/config.yaml > 默认值。
func NewConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort: ":19800",
		},
		Database: DatabaseConfig{
			Path: "",
		},
		AI: AIConfig{
			ChatBaseURL:      "https://api.openai.com/v1",
			ChatModel:        "gpt-4o-mini",
			EmbeddingBaseURL: "https://api.openai.com/v1",
			EmbeddingModel:   "text-embedding-3-large",
		},
	}

	// 配置文件覆盖默认值
	cfg.applyFile(filepath.Join(GetDataDir(), ConfigFileName))

	// 环境变量优先级最高
	applyEnv(&cfg.Server.HTTPPort, EnvHTTPPort)
	applyEnv(&cfg.Database.Path, EnvDBPath)
	applyEnv(&cfg.AI.ChatBaseURL, EnvLLMBaseURL)
	applyEnv(&cfg.AI.ChatAPIKey, EnvLLMAPIKey)
	applyEnv(&cfg.AI.ChatModel, EnvLLMModel)
	applyEnv(&cfg.AI.EmbeddingBaseURL, EnvEmbeddingBaseURL)
	applyEnv(&cfg.AI.EmbeddingAPIKey, EnvEmbeddingAPIKey)
	applyEnv(&cfg.AI.EmbeddingModel, EnvEmbeddingModel)

	if cfg.AI.EmbeddingAPIKey == "" {
		cfg.AI.EmbeddingAPIKey = cfg.AI.ChatAPIKey
	}

	return cfg
}

// applyFile 读取 yaml 配置文件并覆盖非空字段，文件不存在时忽略
func (c *Config) applyFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return
	}

	applyValue(&c.Server.HTTPPort, fileCfg.Server.HTTPPort)
	applyValue(&c.Database.Path, fileCfg.Database.Path)
	applyValue(&c.AI.ChatBaseURL, fileCfg.AI.ChatBaseURL)
	applyValue(&c.AI.ChatAPIKey, fileCfg.AI.ChatAPIKey)
	applyValue(&c.AI.ChatModel, fileCfg.AI.ChatModel)
	applyValue(&c.AI.EmbeddingBaseURL, fileCfg.AI.EmbeddingBaseURL)
	applyValue(&c.AI.EmbeddingAPIKey, fileCfg.AI.EmbeddingAPIKey)
	applyValue(&c.AI.EmbeddingModel, fileCfg.AI.EmbeddingModel)
}

// applyEnv 环境变量非空时覆盖目标值
func applyEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// applyValue 值非空时覆盖目标值
func applyValue(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewAIConfig 创建 AI 配置
func NewAIConfig(cfg *Config) *AIConfig {
	return &cfg.AI
}
