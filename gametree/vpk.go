package gametree

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"git.lubar.me/ben/valve/vpk"
)

// VPKMount 以只读方式挂载一个 VPK 文件
type VPKMount struct {
	path   string
	opener *vpk.Opener
	files  map[string]*vpk.File // 小写路径 -> 文件
	mu     sync.Mutex
}

// OpenVPK 打开 VPK 并建立文件索引
func OpenVPK(filePath string) (*VPKMount, error) {
	opener := vpk.Single(filePath)

	archive, err := opener.ReadArchive()
	if err != nil {
		opener.Close()
		return nil, err
	}

	m := &VPKMount{
		path:   filePath,
		opener: opener,
		files:  make(map[string]*vpk.File, len(archive.Files)),
	}
	for i := range archive.Files {
		file := &archive.Files[i]
		m.files[strings.ToLower(CleanPath(file.Name()))] = file
	}
	return m, nil
}

func (m *VPKMount) Name() string { return filepath.Base(m.path) }

func (m *VPKMount) Has(rel string) bool {
	_, ok := m.files[strings.ToLower(rel)]
	return ok
}

// Open 读取 VPK 内部文件，整体读入内存后返回
func (m *VPKMount) Open(rel string) (io.ReadCloser, error) {
	file, ok := m.files[strings.ToLower(rel)]
	if !ok {
		return nil, notExist(rel)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	reader, err := file.Open(m.opener)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *VPKMount) Close() error {
	return m.opener.Close()
}
