package packer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ManifestName bspzip 读取的文件列表名
const ManifestName = "zipfiles.txt"

var (
	// ErrPackerNotFound 找不到 bspzip 可执行文件
	ErrPackerNotFound = errors.New("bspzip not found")
	// ErrMapNotCompiled 游戏目录下没有编译好的 .bsp
	ErrMapNotCompiled = errors.New("compiled map not found")
)

// Entry 一个待打包文件: .bsp 内的路径和磁盘上的路径
type Entry struct {
	Internal string
	External string
}

// Manifest bspzip -addorupdatelist 使用的清单，每个文件占两行
type Manifest []Entry

// BuildManifest 由输出目录中的文件生成清单，输出目录中的路径都是小写
func BuildManifest(outputDir string, files []string) Manifest {
	seen := make(map[string]bool)
	manifest := make(Manifest, 0, len(files))
	for _, file := range files {
		internal := strings.ToLower(strings.ReplaceAll(file, "\\", "/"))
		if seen[internal] {
			continue
		}
		seen[internal] = true
		manifest = append(manifest, Entry{
			Internal: internal,
			External: filepath.Join(outputDir, filepath.FromSlash(internal)),
		})
	}
	return manifest
}

// WriteTo 按 bspzip 的格式写出清单
func (m Manifest) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, entry := range m {
		buf.WriteString(entry.Internal)
		buf.WriteByte('\n')
		buf.WriteString(entry.External)
		buf.WriteByte('\n')
	}
	return buf.WriteTo(w)
}

// DefaultBspzip 游戏目录同级 bin/ 下的 bspzip.exe
func DefaultBspzip(gameRoot string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(gameRoot)), "bin", "bspzip.exe")
}

// Options 打包参数
type Options struct {
	Bspzip    string // 为空时使用 DefaultBspzip
	GameRoot  string
	OutputDir string
	MapName   string
	Files     []string
	Logger    zerolog.Logger
}

// Pack 把附属文件重新打进地图的 .bsp，结果写到输出目录的 maps/ 下
// 清单写在输出目录中，结束后删除。
func Pack(ctx context.Context, opts Options) error {
	if len(opts.Files) == 0 {
		return nil
	}

	bspzip := opts.Bspzip
	if bspzip == "" {
		bspzip = DefaultBspzip(opts.GameRoot)
	}
	if _, err := os.Stat(bspzip); err != nil {
		return fmt.Errorf("%w: %s", ErrPackerNotFound, bspzip)
	}

	source := filepath.Join(opts.GameRoot, "maps", opts.MapName+".bsp")
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("%w: %s", ErrMapNotCompiled, source)
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := writeManifest(manifestPath, BuildManifest(opts.OutputDir, opts.Files)); err != nil {
		return err
	}
	defer os.Remove(manifestPath)

	target := filepath.Join(opts.OutputDir, "maps", opts.MapName+".bsp")
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create maps directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, bspzip, "-addorupdatelist", source, manifestPath, target)
	output, err := cmd.CombinedOutput()
	if err != nil {
		opts.Logger.Debug().Str("output", string(output)).Msg("bspzip failed")
		return fmt.Errorf("bspzip: %w", err)
	}

	opts.Logger.Debug().Int("files", len(opts.Files)).Str("bsp", target).Msg("packed")
	return nil
}

func writeManifest(path string, manifest Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if _, err := manifest.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	return f.Close()
}
