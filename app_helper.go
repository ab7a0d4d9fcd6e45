package main

import (
	"errors"
	"fmt"
	"os"

	"map-scraper/config"

	"github.com/hymkor/trash-go"
	"github.com/rs/zerolog/log"
)

// resetOutput 清空并重建输出目录
// useTrash 为 true 时旧目录移到回收站，否则直接删除。
func resetOutput(dir string, useTrash bool) error {
	if _, err := os.Stat(dir); err == nil {
		if useTrash {
			if err := trash.Throw(dir); err != nil {
				return fmt.Errorf("move %s to trash: %w", dir, err)
			}
		} else if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access output directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

func configStore() (*config.Store, error) {
	return config.DefaultStore()
}

// resolveGameDir 命令行参数优先，其次是上次使用的目录；用过的目录会被记住
func resolveGameDir(store *config.Store, flag string) (string, error) {
	if flag != "" {
		if err := store.Save(&config.Config{GamePath: flag}); err != nil {
			log.Warn().Err(err).Msg("could not remember game directory")
		}
		return flag, nil
	}

	cfg, err := store.Load()
	if err != nil {
		if errors.Is(err, config.ErrNoConfig) {
			return "", fmt.Errorf("no game directory given, use --game")
		}
		return "", err
	}

	log.Info().Str("game", cfg.GamePath).Msg("using last game directory")
	return cfg.GamePath, nil
}
