package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoConfig 还没有保存过配置
var ErrNoConfig = errors.New("no saved configuration")

// Config 记住上次使用的游戏目录
type Config struct {
	GamePath string `json:"gamepath"`
}

// Store 配置文件位置
type Store struct {
	Path string
}

// DefaultStore <UserConfigDir>/MapScraper/config.json
func DefaultStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locate config directory: %w", err)
	}
	return &Store{Path: filepath.Join(dir, "MapScraper", "config.json")}, nil
}

// Load 读取配置，文件不存在时返回 ErrNoConfig
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	if cfg.GamePath == "" {
		return nil, ErrNoConfig
	}
	return &cfg, nil
}

// Save 写入配置
func (s *Store) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0644)
}

// Forget 删除保存的配置
func (s *Store) Forget() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
