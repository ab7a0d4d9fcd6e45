package keywords

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL 远程关键字列表所在位置
const DefaultBaseURL = "https://raw.githubusercontent.com/SpySpaille/MapScraper/main/Getters/"

const (
	textureFile  = "TextureGetter.txt"
	materialFile = "MaterialGetter.txt"
	soundFile    = "SoundGetter.txt"
)

//go:embed defaults/*.txt
var defaults embed.FS

// Registry 识别引用字段用的三组关键字
type Registry struct {
	Textures  []string `json:"textures"`
	Materials []string `json:"materials"`
	Sounds    []string `json:"sounds"`
}

// Default 返回内置的关键字列表
func Default() *Registry {
	read := func(name string) []string {
		data, err := defaults.ReadFile("defaults/" + name)
		if err != nil {
			panic(fmt.Sprintf("missing bundled keyword list %s: %v", name, err))
		}
		return ParseList(string(data))
	}

	return &Registry{
		Textures:  read(textureFile),
		Materials: read(materialFile),
		Sounds:    read(soundFile),
	}
}

// Fetcher 从远程拉取关键字列表
type Fetcher struct {
	client *resty.Client
}

// NewFetcher 创建拉取器，baseURL 为空时使用 DefaultBaseURL
func NewFetcher(baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetHeader("User-Agent", "map-scraper")

	return &Fetcher{client: client}
}

// Fetch 依次拉取三份列表，任何一份失败都返回错误
func (f *Fetcher) Fetch(ctx context.Context) (*Registry, error) {
	textures, err := f.fetchList(ctx, textureFile)
	if err != nil {
		return nil, err
	}
	materials, err := f.fetchList(ctx, materialFile)
	if err != nil {
		return nil, err
	}
	sounds, err := f.fetchList(ctx, soundFile)
	if err != nil {
		return nil, err
	}

	return &Registry{
		Textures:  textures,
		Materials: materials,
		Sounds:    sounds,
	}, nil
}

func (f *Fetcher) fetchList(ctx context.Context, name string) ([]string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", name, resp.StatusCode())
	}
	return ParseList(resp.String()), nil
}

// ParseList 按行拆分，去掉首尾空白和空行
func ParseList(content string) []string {
	var list []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		list = append(list, line)
	}
	return list
}
