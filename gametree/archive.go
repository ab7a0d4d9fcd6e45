package gametree

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode"
)

// SevenZipMount 以只读方式挂载 .7z 内容包
type SevenZipMount struct {
	path   string
	reader *sevenzip.ReadCloser
	files  map[string]*sevenzip.File
	mu     sync.Mutex
}

// OpenSevenZip 打开 7z 并建立文件索引
func OpenSevenZip(filePath string) (*SevenZipMount, error) {
	r, err := sevenzip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}

	m := &SevenZipMount{
		path:   filePath,
		reader: r,
		files:  make(map[string]*sevenzip.File, len(r.File)),
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		m.files[strings.ToLower(CleanPath(f.Name))] = f
	}
	return m, nil
}

func (m *SevenZipMount) Name() string { return filepath.Base(m.path) }

func (m *SevenZipMount) Has(rel string) bool {
	_, ok := m.files[strings.ToLower(rel)]
	return ok
}

func (m *SevenZipMount) Open(rel string) (io.ReadCloser, error) {
	f, ok := m.files[strings.ToLower(rel)]
	if !ok {
		return nil, notExist(rel)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *SevenZipMount) Close() error {
	return m.reader.Close()
}

// RarMount 以只读方式挂载 .rar 内容包
// rar 只能顺序读取，所以只保留文件名索引，读取时重新打开并扫描到目标条目。
type RarMount struct {
	path  string
	files map[string]string // 小写路径 -> 归档内原始名称
	mu    sync.Mutex
}

// OpenRar 扫描 rar 建立文件索引
func OpenRar(filePath string) (*RarMount, error) {
	r, err := rardecode.OpenReader(filePath, "")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	m := &RarMount{
		path:  filePath,
		files: make(map[string]string),
	}
	for {
		header, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.IsDir {
			continue
		}
		m.files[strings.ToLower(CleanPath(header.Name))] = header.Name
	}
	return m, nil
}

func (m *RarMount) Name() string { return filepath.Base(m.path) }

func (m *RarMount) Has(rel string) bool {
	_, ok := m.files[strings.ToLower(rel)]
	return ok
}

func (m *RarMount) Open(rel string) (io.ReadCloser, error) {
	name, ok := m.files[strings.ToLower(rel)]
	if !ok {
		return nil, notExist(rel)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := rardecode.OpenReader(m.path, "")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for {
		header, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil, notExist(rel)
		}
		if err != nil {
			return nil, err
		}
		if header.Name != name {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func (m *RarMount) Close() error { return nil }
