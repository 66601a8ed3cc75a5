package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"chat-client/models"
)

type Config struct {
	Server struct {
		HTTPURL string `mapstructure:"http_url"`
		WSURL   string `mapstructure:"ws_url"`
	} `mapstructure:"server"`
	Chat struct {
		RoomID      string `mapstructure:"room_id"`
		DownloadDir string `mapstructure:"download_dir"`
	} `mapstructure:"chat"`
	Credentials struct {
		File string `mapstructure:"file"`
	} `mapstructure:"credentials"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Load reads ./configs/config.yaml when present and environment overrides,
// falling back to defaults that match the dev server.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath("./configs")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.http_url", "http://localhost:8080")
	v.SetDefault("server.ws_url", "ws://localhost:8080/ws")
	v.SetDefault("chat.room_id", models.DefaultRoomID)
	v.SetDefault("chat.download_dir", ".")
	v.SetDefault("credentials.file", defaultCredentialFile())
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func defaultCredentialFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chat-client/credentials.json"
	}
	return filepath.Join(home, ".chat-client", "credentials.json")
}
