package gametree

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeVPK 写出一个单文件的 v1 VPK，数据紧跟在目录树后面
func writeVPK(t *testing.T, filePath string, files map[string]string) {
	t.Helper()

	// 扩展名 -> 目录 -> 文件名
	type entry struct{ name, content string }
	grouped := map[string]map[string][]entry{}
	for name, content := range files {
		ext := strings.TrimPrefix(path.Ext(name), ".")
		dir := path.Dir(name)
		if dir == "." {
			dir = " "
		}
		base := strings.TrimSuffix(path.Base(name), path.Ext(name))
		if grouped[ext] == nil {
			grouped[ext] = map[string][]entry{}
		}
		grouped[ext][dir] = append(grouped[ext][dir], entry{base, content})
	}

	var tree, data bytes.Buffer
	le := binary.LittleEndian
	cstring := func(s string) {
		tree.WriteString(s)
		tree.WriteByte(0)
	}

	for _, ext := range sortedKeys(grouped) {
		cstring(ext)
		for _, dir := range sortedKeys(grouped[ext]) {
			cstring(dir)
			entries := grouped[ext][dir]
			sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
			for _, e := range entries {
				cstring(e.name)
				binary.Write(&tree, le, crc32.ChecksumIEEE([]byte(e.content)))
				binary.Write(&tree, le, uint16(0))      // preload
				binary.Write(&tree, le, uint16(0x7fff)) // 数据在目录文件本身
				binary.Write(&tree, le, uint32(data.Len()))
				binary.Write(&tree, le, uint32(len(e.content)))
				binary.Write(&tree, le, uint16(0xffff))
				data.WriteString(e.content)
			}
			tree.WriteByte(0)
		}
		tree.WriteByte(0)
	}
	tree.WriteByte(0)

	var out bytes.Buffer
	binary.Write(&out, le, uint32(0x55aa1234))
	binary.Write(&out, le, uint32(1))
	binary.Write(&out, le, uint32(tree.Len()))
	out.Write(tree.Bytes())
	out.Write(data.Bytes())

	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
	require.NoError(t, os.WriteFile(filePath, out.Bytes(), 0644))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestTreeMountVPK(t *testing.T) {
	root := t.TempDir()
	game := filepath.Join(root, "hl2")
	writeFile(t, game, "materials/metal/floor.vmt", "loose")

	vpkPath := filepath.Join(root, "content.vpk")
	writeVPK(t, vpkPath, map[string]string{
		"materials/metal/floor.vmt":   "packed",
		"materials/metal/floor.vtf":   "vtf data",
		"models/props/crate.mdl":      "mdl data",
		"sound/ambient/wind.wav":      "wind",
		"scripts/soundscapes_map.txt": `"wave" "ambient/wind.wav"`,
	})

	tree, err := New(game)
	require.NoError(t, err)
	defer tree.Close()

	require.NoError(t, tree.Mount(vpkPath))
	assert.Equal(t, []string{"content.vpk"}, tree.Mounts())

	// 散文件优先于归档
	data, err := tree.ReadFile("materials/metal/floor.vmt")
	require.NoError(t, err)
	assert.Equal(t, "loose", string(data))

	data, err = tree.ReadFile("materials/metal/floor.vtf")
	require.NoError(t, err)
	assert.Equal(t, "vtf data", string(data))

	// 归档内查找同样不区分大小写
	data, err = tree.ReadFile(`Models\Props\Crate.MDL`)
	require.NoError(t, err)
	assert.Equal(t, "mdl data", string(data))

	ok, err := tree.Exists("sound/ambient/wind.wav")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tree.Exists("sound/ambient/rain.wav")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = tree.ReadFile("sound/ambient/rain.wav")
	assert.True(t, IsMissing(err))

	assert.NoError(t, tree.Close())
	assert.Empty(t, tree.Mounts())
}

func TestOpenVPKIndex(t *testing.T) {
	vpkPath := filepath.Join(t.TempDir(), "addon.vpk")
	writeVPK(t, vpkPath, map[string]string{
		"maps/testmap.nav":         "nav",
		"particles/fire.pcf":       "pcf",
		"materials/Water/Blue.vmt": "water",
	})

	m, err := OpenVPK(vpkPath)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, "addon.vpk", m.Name())
	assert.True(t, m.Has("maps/testmap.nav"))
	assert.True(t, m.Has("materials/water/blue.vmt"))
	assert.False(t, m.Has("maps/other.nav"))

	r, err := m.Open("particles/fire.pcf")
	require.NoError(t, err)
	defer r.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, "pcf", buf.String())

	_, err = m.Open("particles/smoke.pcf")
	assert.True(t, IsMissing(err))
}

func TestTreeMountCorruptVPK(t *testing.T) {
	root := t.TempDir()
	vpkPath := filepath.Join(root, "broken.vpk")
	require.NoError(t, os.WriteFile(vpkPath, []byte("not a vpk"), 0644))

	tree, err := New(root)
	require.NoError(t, err)
	defer tree.Close()

	assert.Error(t, tree.Mount(vpkPath))
	assert.Empty(t, tree.Mounts())
}
