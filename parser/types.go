package parser

import (
	"strings"
)

// Kind 引用类型，决定解析根目录以及后续处理方式
type Kind int

const (
	KindTexture  Kind = iota // materials/<id>.vtf，叶子节点
	KindMaterial             // materials/<id>.vmt，需要递归展开
	KindSound                // sound/<path>
	KindModel                // <path>.mdl 及其同名变体
)

func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindMaterial:
		return "material"
	case KindSound:
		return "sound"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

// Reference 从文本中提取出的一条资源引用
type Reference struct {
	Kind     Kind   `json:"kind"`
	Identity string `json:"identity"` // 原始路径，只做了斜杠归一化
}

// MaterialDocument 解析后的 .vmt 文件: 小写键 -> 按出现顺序排列的值
type MaterialDocument map[string][]string

// Get 按不区分大小写的键取值
func (d MaterialDocument) Get(key string) []string {
	return d[strings.ToLower(key)]
}

// ModelMetadata 模型文件中记录的贴图名称和贴图目录
type ModelMetadata struct {
	Textures    []string `json:"textures"`
	TextureDirs []string `json:"textureDirs"`
}
