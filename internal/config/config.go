// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Backend    BackendConfig    `mapstructure:"backend"`
	Identity   IdentityConfig   `mapstructure:"identity"`
	Log        LogConfig        `mapstructure:"log"`
	MockServer MockServerConfig `mapstructure:"mock_server"`
}

// BackendConfig 存储后端协作方的访问配置。
// 聊天与管理接口分别由两个服务提供，因此保留两个基地址。
type BackendConfig struct {
	ChatBaseURL    string        `mapstructure:"chat_base_url"`
	AccountBaseURL string        `mapstructure:"account_base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// IdentityConfig 存储本地身份文件的配置。
type IdentityConfig struct {
	// Path 为空时使用 ~/.corpwise/identity.json
	Path string `mapstructure:"path"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// MockServerConfig 存储本地模拟后端的配置。
type MockServerConfig struct {
	Port             string        `mapstructure:"port"`
	Mode             string        `mapstructure:"mode"`
	SuperTokenSecret string        `mapstructure:"super_token_secret"`
	SuperPassword    string        `mapstructure:"super_password"`
	TokenExpireHours int           `mapstructure:"token_expire_hours"`
	Redis            RedisConfig   `mapstructure:"redis"`
	SeedAccounts     []SeedAccount `mapstructure:"seed_accounts"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时使用内存存储。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SeedAccount 描述模拟后端启动时预置的账号。
type SeedAccount struct {
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	CompanyID string `mapstructure:"company_id"`
	Admin     bool   `mapstructure:"admin"`
	Tier      string `mapstructure:"tier"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	applyDefaults(&Conf)
}

// applyDefaults 填充缺省值，保证零配置也能指向本地模拟后端。
func applyDefaults(c *Config) {
	if c.Backend.ChatBaseURL == "" {
		c.Backend.ChatBaseURL = "http://localhost:8000"
	}
	if c.Backend.AccountBaseURL == "" {
		c.Backend.AccountBaseURL = "http://localhost:8001"
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.MockServer.Port == "" {
		c.MockServer.Port = "8000"
	}
	if c.MockServer.Mode == "" {
		c.MockServer.Mode = "debug"
	}
	if c.MockServer.TokenExpireHours <= 0 {
		c.MockServer.TokenExpireHours = 12
	}
}
