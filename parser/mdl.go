package parser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	mdlMagic       = "IDST"
	mdlMinVersion  = 44
	mdlMaxVersion  = 49
	mdlHeaderSize  = 220
	mdlTextureSize = 64 // mstudiotexture_t
	mdlMaxEntries  = 4096

	// studiohdr_t 中贴图相关字段的偏移
	ofsTextureCount    = 204
	ofsTextureIndex    = 208
	ofsTextureDirCount = 212
	ofsTextureDirIndex = 216
)

// ErrNotModel 不是可识别的 Studio 模型文件
var ErrNotModel = errors.New("not a studio model")

// ReadModelMetadata 读取 .mdl 文件头中的贴图名和贴图目录
// 名称统一转为小写、斜杠归一。格式损坏时返回错误，不会 panic。
func ReadModelMetadata(data []byte) (*ModelMetadata, error) {
	if len(data) < mdlHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotModel, len(data))
	}
	if string(data[0:4]) != mdlMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrNotModel, data[0:4])
	}
	version := int32(binary.LittleEndian.Uint32(data[4:8]))
	if version < mdlMinVersion || version > mdlMaxVersion {
		return nil, fmt.Errorf("unsupported model version: %d", version)
	}

	textureCount := readInt32(data, ofsTextureCount)
	textureIndex := readInt32(data, ofsTextureIndex)
	dirCount := readInt32(data, ofsTextureDirCount)
	dirIndex := readInt32(data, ofsTextureDirIndex)

	if textureCount < 0 || textureCount > mdlMaxEntries || dirCount < 0 || dirCount > mdlMaxEntries {
		return nil, fmt.Errorf("invalid texture counts: %d textures, %d dirs", textureCount, dirCount)
	}

	meta := &ModelMetadata{
		Textures:    make([]string, 0, textureCount),
		TextureDirs: make([]string, 0, dirCount),
	}

	for i := int32(0); i < textureCount; i++ {
		base := int64(textureIndex) + int64(i)*mdlTextureSize
		if base < 0 || base+mdlTextureSize > int64(len(data)) {
			return nil, fmt.Errorf("texture %d out of range", i)
		}
		nameOfs := base + int64(readInt32(data, int(base)))
		name, err := readCString(data, nameOfs)
		if err != nil {
			return nil, fmt.Errorf("texture %d name: %w", i, err)
		}
		meta.Textures = append(meta.Textures, strings.ToLower(NormalizeSlashes(name)))
	}

	for i := int32(0); i < dirCount; i++ {
		slot := int64(dirIndex) + int64(i)*4
		if slot < 0 || slot+4 > int64(len(data)) {
			return nil, fmt.Errorf("texture dir %d out of range", i)
		}
		dir, err := readCString(data, int64(readInt32(data, int(slot))))
		if err != nil {
			return nil, fmt.Errorf("texture dir %d: %w", i, err)
		}
		meta.TextureDirs = append(meta.TextureDirs, strings.ToLower(NormalizeSlashes(dir)))
	}

	return meta, nil
}

func readInt32(data []byte, ofs int) int32 {
	return int32(binary.LittleEndian.Uint32(data[ofs : ofs+4]))
}

// readCString 读取以 0 结尾的字符串
func readCString(data []byte, ofs int64) (string, error) {
	if ofs < 0 || ofs >= int64(len(data)) {
		return "", fmt.Errorf("string offset %d out of range", ofs)
	}
	end := bytes.IndexByte(data[ofs:], 0)
	if end == -1 {
		return "", fmt.Errorf("unterminated string at %d", ofs)
	}
	return string(data[ofs : ofs+int64(end)]), nil
}
