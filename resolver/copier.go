package resolver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"map-scraper/gametree"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

// Matcher 判断输出路径是否应被忽略 (*ignore.GitIgnore 满足该接口)
type Matcher interface {
	MatchesPath(path string) bool
}

// Copier 把游戏目录中的文件复制到输出目录
// 每个目标路径在一次运行中只会尝试一次，因此同一目标不会被并发写入。
type Copier struct {
	tree   *gametree.Tree
	out    string
	pool   *ants.Pool
	ignore Matcher
	log    zerolog.Logger

	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewCopier(tree *gametree.Tree, outputDir string, pool *ants.Pool, ignore Matcher, logger zerolog.Logger) *Copier {
	return &Copier{
		tree:    tree,
		out:     outputDir,
		pool:    pool,
		ignore:  ignore,
		log:     logger,
		claimed: make(map[string]struct{}),
	}
}

// claim 登记目标路径，已登记过返回 false
func (c *Copier) claim(dst string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.claimed[dst]; ok {
		return false
	}
	c.claimed[dst] = struct{}{}
	return true
}

// Batch 一个阶段内的复制任务，Wait 之后才能汇报数量
type Batch struct {
	c       *Copier
	primary func(dst string) bool
	wg      sync.WaitGroup

	copied    atomic.Int64
	extracted atomic.Int64

	mu  sync.Mutex
	err error
}

// Batch 开始一批复制
// primary 判断目标是否是本阶段的主文件 (材质的 .vmt、模型的 .mdl 等)，
// 主文件复制成功才计入 Extracted；为空时不统计。
func (c *Copier) Batch(primary func(dst string) bool) *Batch {
	return &Batch{c: c, primary: primary}
}

// Copy 异步复制 src (游戏目录相对路径) 到 dst (输出目录相对路径，会转为小写)
// 源文件不存在时静默跳过。
func (b *Batch) Copy(src, dst string) {
	dst = strings.ToLower(gametree.CleanPath(dst))
	if dst == "" {
		return
	}
	if b.c.ignore != nil && b.c.ignore.MatchesPath(dst) {
		b.c.log.Debug().Str("file", dst).Msg("ignored")
		return
	}
	if !b.c.claim(dst) {
		return
	}
	isPrimary := b.primary != nil && b.primary(dst)

	b.wg.Add(1)
	task := func() {
		defer b.wg.Done()

		ok, err := b.c.copyFile(src, dst)
		if err != nil {
			b.setErr(err)
			return
		}
		if ok {
			b.copied.Add(1)
			if isPrimary {
				b.extracted.Add(1)
			}
		}
	}

	if b.c.pool == nil {
		task()
		return
	}
	if err := b.c.pool.Submit(task); err != nil {
		// 协程池已关闭时直接在当前协程执行
		task()
	}
}

// Wait 等待所有复制完成，返回成功复制的数量和第一个致命错误
func (b *Batch) Wait() (int, error) {
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.copied.Load()), b.err
}

// Extracted 复制成功的主文件数量，在 Wait 之后读取
func (b *Batch) Extracted() int {
	return int(b.extracted.Load())
}

func (b *Batch) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		b.err = err
	}
}

// copyFile 打开源文件 (不存在则跳过)，复制，保证关闭
func (c *Copier) copyFile(src, dst string) (bool, error) {
	in, err := c.tree.Open(src)
	if err != nil {
		if gametree.IsMissing(err) {
			c.log.Debug().Str("file", src).Msg("missing")
			return false, nil
		}
		return false, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	target := filepath.Join(c.out, filepath.FromSlash(dst))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", dst, err)
	}

	out, err := os.Create(target)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", dst, err)
	}

	c.log.Debug().Str("file", dst).Msg("copied")
	return true, nil
}
