package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	ArchivePath      string
	FilesRoot        string
	StrictPrompt     bool
	ImportWorkers    int
	APIToken         string
	Port             int
	RateLimitEnabled bool
	RateLimitPerIP   int
	RateLimitBurst   int
}

// Load 加载配置（从 .env 文件和环境变量）
func Load() (*Config, error) {
	// 尝试加载 .env 文件（如果不存在也不报错）
	_ = godotenv.Load()

	cfg := &Config{
		ArchivePath:      parseArchivePath(getEnv("DATABASE_URL", "tags.hta.db")),
		FilesRoot:        getEnv("FILES_ROOT", "."),
		StrictPrompt:     getEnvBool("STRICT_PROMPT", false),
		ImportWorkers:    getEnvInt("IMPORT_WORKERS", 4),
		APIToken:         getEnv("API_TOKEN", ""),
		Port:             getEnvInt("PORT", 8080),
		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitPerIP:   getEnvInt("RATE_LIMIT_PER_IP", 60),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 10),
	}

	return cfg, nil
}

// parseArchivePath 解析归档路径（兼容 sqlite:/// 前缀）
func parseArchivePath(dbURL string) string {
	return strings.TrimPrefix(dbURL, "sqlite:///")
}

// getEnv 获取环境变量（带默认值）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool 获取布尔型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	value = strings.ToLower(strings.TrimSpace(value))
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt 获取整型环境变量
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.ArchivePath == "" {
		return fmt.Errorf("请设置 DATABASE_URL 环境变量")
	}

	if c.ImportWorkers <= 0 {
		return fmt.Errorf("IMPORT_WORKERS 必须大于 0")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT 必须在 1-65535 之间")
	}

	if c.RateLimitEnabled && c.RateLimitPerIP <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_IP 必须大于 0")
	}

	return nil
}

// ValidateServe 服务模式的额外校验
func (c *Config) ValidateServe() error {
	if c.APIToken == "" {
		return fmt.Errorf("服务模式必须设置 API_TOKEN 环境变量")
	}
	return nil
}
