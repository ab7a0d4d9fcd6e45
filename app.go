package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	rt "runtime"
	"strings"

	"map-scraper/gametree"
	"map-scraper/packer"
	"map-scraper/resolver"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

// Options 一次提取的参数
type Options struct {
	MapFile   string
	GameDir   string
	OutputDir string // 为空时为 ./<地图名>

	Sounds    bool
	Materials bool
	Models    bool
	Publish   bool

	Mounts     []string
	IgnoreFile string
	Offline    bool
	GettersURL string
	Bspzip     string
	Pack       bool
	Trash      bool
	Workers    int
}

// Summary 运行结果
type Summary struct {
	MapName   string                 `json:"mapName"`
	OutputDir string                 `json:"outputDir"`
	Phases    []resolver.PhaseReport `json:"phases"`
	Textures  int                    `json:"textures"`
	Packed    int                    `json:"packed"`
	PackError string                 `json:"packError,omitempty"`
}

// App struct
type App struct {
	ctx           context.Context
	opts          Options
	log           zerolog.Logger
	goroutinePool *ants.Pool
	tree          *gametree.Tree
}

// NewApp creates a new App application struct
func NewApp(ctx context.Context, opts Options, logger zerolog.Logger) *App {
	workers := opts.Workers
	if workers <= 0 {
		workers = rt.GOMAXPROCS(0)
	}
	pool, _ := ants.NewPool(workers) // 复制文件用的协程池

	return &App{
		ctx:           ctx,
		opts:          opts,
		log:           logger,
		goroutinePool: pool,
	}
}

// Close 释放协程池和挂载的归档
func (a *App) Close() {
	if a.goroutinePool != nil {
		a.goroutinePool.Release()
	}
	if a.tree != nil {
		if err := a.tree.Close(); err != nil {
			a.LogError("卸载", err.Error(), a.opts.GameDir)
		}
	}
}

// Run 按 声音 -> 材质 -> 模型 -> 发布文件 的顺序执行
// 任何非"文件不存在"类的错误都会中止整个运行。
func (a *App) Run() (*Summary, error) {
	content, mapName, err := loadMap(a.opts.MapFile)
	if err != nil {
		return nil, err
	}

	outputDir := a.opts.OutputDir
	if outputDir == "" {
		outputDir = mapName
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}

	if err := a.ValidateGameDirectory(a.opts.GameDir); err != nil {
		return nil, err
	}
	if err := checkOutputSafe(outputDir, a.opts.GameDir); err != nil {
		return nil, err
	}

	a.tree, err = gametree.New(a.opts.GameDir)
	if err != nil {
		return nil, err
	}
	for _, mount := range a.opts.Mounts {
		if err := a.tree.Mount(mount); err != nil {
			return nil, err
		}
		a.log.Info().Str("archive", filepath.Base(mount)).Msg("mounted")
	}

	var matcher resolver.Matcher
	if a.opts.IgnoreFile != "" {
		matcher, err = resolver.LoadIgnore(a.opts.IgnoreFile)
		if err != nil {
			return nil, err
		}
	}

	registry := a.loadRegistry()

	if err := resetOutput(outputDir, a.opts.Trash); err != nil {
		return nil, err
	}

	session := resolver.NewSession(resolver.Options{
		Tree:      a.tree,
		Registry:  registry,
		OutputDir: outputDir,
		Pool:      a.goroutinePool,
		Ignore:    matcher,
		Logger:    a.log,
	})

	summary := &Summary{MapName: mapName, OutputDir: outputDir}

	if a.opts.Sounds {
		a.log.Info().Msg("extracting sounds")
		report, err := session.Sounds(content, mapName)
		if err != nil {
			return nil, err
		}
		summary.Phases = append(summary.Phases, report)
	}

	if a.opts.Materials {
		a.log.Info().Msg("extracting materials")
		report, err := session.Materials(content)
		if err != nil {
			return nil, err
		}
		summary.Phases = append(summary.Phases, report)
	}

	if a.opts.Models {
		a.log.Info().Msg("extracting models")
		report, err := session.Models(content)
		if err != nil {
			return nil, err
		}
		summary.Phases = append(summary.Phases, report)
	}

	if a.opts.Publish {
		a.log.Info().Msg("searching for other files")
		result, err := session.Auxiliary(mapName)
		if err != nil {
			return nil, err
		}
		summary.Phases = append(summary.Phases, result.PhaseReport)

		if a.opts.Pack {
			a.pack(summary, mapName, outputDir, result.Pack)
		}
	}

	summary.Textures = session.Textures()
	return summary, nil
}

// pack 打包失败只记录，不影响已经复制出来的文件
func (a *App) pack(summary *Summary, mapName, outputDir string, files []string) {
	err := packer.Pack(a.ctx, packer.Options{
		Bspzip:    a.opts.Bspzip,
		GameRoot:  a.opts.GameDir,
		OutputDir: outputDir,
		MapName:   mapName,
		Files:     files,
		Logger:    a.log,
	})
	if err != nil {
		summary.PackError = err.Error()
		a.log.Warn().Err(err).Msg("files have not been packed")
		return
	}
	summary.Packed = len(files)
}

// ValidateGameDirectory 验证游戏目录是否有效
func (a *App) ValidateGameDirectory(path string) error {
	if path == "" {
		return fmt.Errorf("game directory is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("game directory does not exist: %s", path)
		}
		return fmt.Errorf("cannot access game directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("game path is not a directory: %s", path)
	}

	// 内容全部在 vpk 里的游戏没有散的 materials 目录，只提示
	if _, err := os.Stat(filepath.Join(path, "materials")); err != nil && len(a.opts.Mounts) == 0 {
		a.log.Warn().Str("game", path).Msg("no materials/ directory in game path")
	}
	return nil
}

// LogError 记录错误
func (a *App) LogError(errorType, message, file string) {
	a.log.Error().Str("type", errorType).Str("file", file).Msg(message)
}

// checkOutputSafe 输出目录会被整个删除，不能和游戏目录有任何重叠
func checkOutputSafe(outputDir, gameDir string) error {
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return err
	}
	game, err := filepath.Abs(gameDir)
	if err != nil {
		return err
	}

	if within(out, game) {
		return fmt.Errorf("output directory %s contains the game directory, refusing to delete it", outputDir)
	}
	if within(game, out) {
		return fmt.Errorf("output directory %s is inside the game directory, refusing to delete it", outputDir)
	}
	return nil
}

// within 判断 path 是否就是 dir 或位于 dir 之下
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}
