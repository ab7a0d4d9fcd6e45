package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"map-scraper/keywords"
)

// loadMap 读取地图源文件，返回内容和地图名 (去掉扩展名的文件名)
func loadMap(mapFile string) (string, string, error) {
	if !strings.EqualFold(filepath.Ext(mapFile), ".vmf") {
		return "", "", fmt.Errorf("map file must be a .vmf: %s", mapFile)
	}

	data, err := os.ReadFile(mapFile)
	if err != nil {
		return "", "", fmt.Errorf("read map file: %w", err)
	}

	name := filepath.Base(mapFile)
	name = name[:len(name)-len(filepath.Ext(name))]
	return string(data), name, nil
}

// loadRegistry 拉取远程关键字列表，失败时退回内置列表
func (a *App) loadRegistry() *keywords.Registry {
	if a.opts.Offline {
		return keywords.Default()
	}

	registry, err := keywords.NewFetcher(a.opts.GettersURL).Fetch(a.ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("could not fetch keyword lists, using bundled ones")
		return keywords.Default()
	}

	a.log.Debug().
		Int("textures", len(registry.Textures)).
		Int("materials", len(registry.Materials)).
		Int("sounds", len(registry.Sounds)).
		Msg("keyword lists loaded")
	return registry
}
