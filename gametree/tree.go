package gametree

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// ErrUnsupportedMount 不支持的挂载文件类型
var ErrUnsupportedMount = errors.New("unsupported mount type")

// Mount 只读的归档资源来源 (vpk/7z/rar)
type Mount interface {
	Name() string
	Has(rel string) bool
	Open(rel string) (io.ReadCloser, error)
	Close() error
}

// Tree 游戏资源目录，只读
// 先查找散文件，找不到时按挂载顺序查找归档。
type Tree struct {
	Root   string
	mounts []Mount

	mu       sync.Mutex
	dirCache map[string][]string
}

// New 打开游戏目录
func New(root string) (*Tree, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("game directory does not exist: %s", root)
		}
		return nil, fmt.Errorf("cannot access game directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("game path is not a directory: %s", root)
	}

	return &Tree{
		Root:     root,
		dirCache: make(map[string][]string),
	}, nil
}

// Mount 按扩展名挂载一个归档
func (t *Tree) Mount(archivePath string) error {
	var (
		m   Mount
		err error
	)

	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".vpk":
		m, err = OpenVPK(archivePath)
	case ".7z":
		m, err = OpenSevenZip(archivePath)
	case ".rar":
		m, err = OpenRar(archivePath)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMount, archivePath)
	}
	if err != nil {
		return fmt.Errorf("mount %s: %w", archivePath, err)
	}

	t.mounts = append(t.mounts, m)
	return nil
}

// Mounts 已挂载的归档名称
func (t *Tree) Mounts() []string {
	names := make([]string, 0, len(t.mounts))
	for _, m := range t.mounts {
		names = append(names, m.Name())
	}
	return names
}

// Close 释放所有挂载
func (t *Tree) Close() error {
	var errs []error
	for _, m := range t.mounts {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	t.mounts = nil
	return errors.Join(errs...)
}

// Exists 检查相对路径是否存在，只有非"不存在"类的错误才会返回
func (t *Tree) Exists(rel string) (bool, error) {
	_, err := t.locate(rel)
	if err == nil {
		return true, nil
	}
	if !IsMissing(err) {
		return false, err
	}

	key := CleanPath(rel)
	for _, m := range t.mounts {
		if m.Has(key) {
			return true, nil
		}
	}
	return false, nil
}

// Open 打开相对路径下的文件，文件不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)
func (t *Tree) Open(rel string) (io.ReadCloser, error) {
	full, err := t.locate(rel)
	if err == nil {
		return os.Open(full)
	}
	if !IsMissing(err) {
		return nil, err
	}

	key := CleanPath(rel)
	for _, m := range t.mounts {
		if m.Has(key) {
			return m.Open(key)
		}
	}
	return nil, notExist(rel)
}

// ReadFile 读取整个文件
func (t *Tree) ReadFile(rel string) ([]byte, error) {
	r, err := t.Open(rel)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// locate 找到散文件的真实路径
// 先按原样查找，找不到时逐级做不区分大小写的目录匹配，
// 这样大小写敏感的文件系统上也能像 Windows 一样工作。
func (t *Tree) locate(rel string) (string, error) {
	clean := CleanPath(rel)
	if clean == "" {
		return "", notExist(rel)
	}

	full := filepath.Join(t.Root, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err == nil {
		if info.IsDir() {
			return "", notExist(rel)
		}
		return full, nil
	}
	if !IsMissing(err) {
		return "", err
	}

	current := t.Root
	for _, part := range strings.Split(clean, "/") {
		names, err := t.listDir(current)
		if err != nil {
			return "", err
		}
		match := ""
		for _, name := range names {
			if strings.EqualFold(name, part) {
				match = name
				break
			}
		}
		if match == "" {
			return "", notExist(rel)
		}
		current = filepath.Join(current, match)
	}

	info, err = os.Stat(current)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", notExist(rel)
	}
	return current, nil
}

// listDir 列出目录内容，游戏目录只读所以结果可以缓存
func (t *Tree) listDir(dir string) ([]string, error) {
	t.mu.Lock()
	names, ok := t.dirCache[dir]
	t.mu.Unlock()
	if ok {
		return names, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names = make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	t.mu.Lock()
	t.dirCache[dir] = names
	t.mu.Unlock()
	return names, nil
}

// CleanPath 归一化相对路径: 统一正斜杠，去掉开头的 "/"，".." 不会越出根目录
func CleanPath(rel string) string {
	rel = strings.ReplaceAll(strings.TrimSpace(rel), "\\", "/")
	rel = path.Clean("/" + rel)
	return strings.TrimPrefix(rel, "/")
}

// IsMissing 判断是否属于"文件不存在"类错误
func IsMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func notExist(rel string) error {
	return &fs.PathError{Op: "open", Path: rel, Err: fs.ErrNotExist}
}
