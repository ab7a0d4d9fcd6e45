package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/encoding/charmap"
)

// MapMaterialKeys 地图文本中直接指向材质的字段
var MapMaterialKeys = []string{"material", "texture", "detailmaterial"}

// MapTextureKeys 地图文本中直接指向 .vtf 的字段
var MapTextureKeys = []string{"startexture"}

// SkyboxSides 天空盒六个面的后缀
var SkyboxSides = []string{"up", "dn", "lf", "rt", "ft", "bk"}

// soundChars Source 引擎声音路径前可能带的控制字符
const soundChars = "*#@><^)}$!?"

var (
	skynameRegex      = regexp.MustCompile(`(?i)"skyname"\s*"([^"]+)"`)
	modelRegex        = regexp.MustCompile(`(?i)"model"\s*"([^"]+)"`)
	waveRegex         = regexp.MustCompile(`(?i)"wave"\s+"([^"]+)"`)
	particleFileRegex = regexp.MustCompile(`(?i)"file"\s+"([^"]+)"`)
	embeddedVMTRegex  = regexp.MustCompile(`(?i)[\w/\\.-]+\.vmt`)

	mapMaterialFields = NewFieldMatcher(MapMaterialKeys)
)

// NormalizeIdentity 引用的去重身份: 斜杠归一、小写、去掉 .vmt/.vtf 后缀
func NormalizeIdentity(ref string) string {
	return strings.ToLower(StripExtension(NormalizeSlashes(ref)))
}

// NormalizeSlashes 把反斜杠统一为正斜杠
func NormalizeSlashes(ref string) string {
	return strings.ReplaceAll(ref, "\\", "/")
}

// StripExtension 去掉结尾的 .vmt 或 .vtf (不区分大小写)
func StripExtension(ref string) string {
	lower := strings.ToLower(ref)
	for _, ext := range []string{".vmt", ".vtf"} {
		if strings.HasSuffix(lower, ext) {
			return ref[:len(ref)-len(ext)]
		}
	}
	return ref
}

// TextureRefs 从材质文档中提取贴图引用
func TextureRefs(doc MaterialDocument, keys []string) []Reference {
	return docRefs(doc, keys, KindTexture)
}

// MaterialRefs 从材质文档中提取嵌套材质引用
func MaterialRefs(doc MaterialDocument, keys []string) []Reference {
	return docRefs(doc, keys, KindMaterial)
}

func docRefs(doc MaterialDocument, keys []string, kind Kind) []Reference {
	var refs []Reference
	for _, key := range keys {
		for _, value := range doc.Get(key) {
			id := StripExtension(NormalizeSlashes(strings.TrimSpace(value)))
			if id == "" {
				continue
			}
			refs = append(refs, Reference{Kind: kind, Identity: id})
		}
	}
	return refs
}

// MapMaterials 从地图文本提取材质引用，天空盒名展开为六个面
func MapMaterials(content string) []Reference {
	var refs []Reference

	for _, match := range skynameRegex.FindAllStringSubmatch(content, -1) {
		for _, side := range SkyboxSides {
			refs = append(refs, Reference{
				Kind:     KindMaterial,
				Identity: fmt.Sprintf("skybox/%s%s", match[1], side),
			})
		}
	}

	for _, value := range mapMaterialFields.Values(content) {
		refs = append(refs, Reference{Kind: KindMaterial, Identity: StripExtension(value)})
	}

	return uniqRefs(refs)
}

// MapTextures 地图文本中直接引用的贴图 (如 env_sun 的 startexture)
func MapTextures(content string, fields *FieldMatcher) []Reference {
	var refs []Reference
	for _, value := range fields.Values(content) {
		refs = append(refs, Reference{Kind: KindTexture, Identity: StripExtension(value)})
	}
	return uniqRefs(refs)
}

// MapModels 提取 .mdl 模型引用，笔刷实体的 "*12" 之类会被过滤掉
func MapModels(content string) []Reference {
	var refs []Reference
	for _, match := range modelRegex.FindAllStringSubmatch(content, -1) {
		model := NormalizeSlashes(match[1])
		if !strings.HasSuffix(strings.ToLower(model), ".mdl") {
			continue
		}
		refs = append(refs, Reference{Kind: KindModel, Identity: model})
	}
	return uniqRefs(refs)
}

// MapSounds 提取声音字段的值
func MapSounds(content string, fields *FieldMatcher) []Reference {
	var refs []Reference
	for _, value := range fields.Values(content) {
		refs = append(refs, Reference{Kind: KindSound, Identity: TrimSoundChars(value)})
	}
	return uniqRefs(refs)
}

// SoundscapeWaves 提取 soundscape 脚本中的 "wave" 条目
func SoundscapeWaves(content string) []Reference {
	var refs []Reference
	for _, match := range waveRegex.FindAllStringSubmatch(content, -1) {
		wave := TrimSoundChars(NormalizeSlashes(match[1]))
		if wave == "" {
			continue
		}
		refs = append(refs, Reference{Kind: KindSound, Identity: wave})
	}
	return uniqRefs(refs)
}

// TrimSoundChars 去掉声音路径前的控制字符
func TrimSoundChars(sound string) string {
	return strings.TrimLeft(strings.TrimSpace(sound), soundChars)
}

// ParticleFiles 提取粒子清单中的 "file" 条目，"!" 预加载前缀会被去掉
func ParticleFiles(content string) []string {
	var files []string
	for _, match := range particleFileRegex.FindAllStringSubmatch(content, -1) {
		file := strings.TrimPrefix(NormalizeSlashes(strings.TrimSpace(match[1])), "!")
		if file == "" {
			continue
		}
		files = append(files, file)
	}
	return lo.Uniq(files)
}

// ParticleMaterials 扫描 .pcf 二进制中嵌入的材质路径
// 粒子文件里二进制和 ASCII 混在一起，按 ISO-8859-1 单字节解码后再匹配。
func ParticleMaterials(raw []byte) []Reference {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil
	}

	var refs []Reference
	for _, match := range embeddedVMTRegex.FindAllString(string(decoded), -1) {
		id := StripExtension(NormalizeSlashes(match))
		if id == "" {
			continue
		}
		refs = append(refs, Reference{Kind: KindMaterial, Identity: id})
	}
	return uniqRefs(refs)
}

// FieldMatcher 一组 "key" "value" 字段的匹配规则，创建后只读，可以并发使用
type FieldMatcher struct {
	patterns []*regexp.Regexp
}

// NewFieldMatcher 为每个字段名编译一次正则，空白的字段名会被跳过
func NewFieldMatcher(keys []string) *FieldMatcher {
	m := &FieldMatcher{}
	for _, key := range lo.Uniq(keys) {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		m.patterns = append(m.patterns, regexp.MustCompile(`(?i)"`+regexp.QuoteMeta(key)+`"\s*"([^"]+)"`))
	}
	return m
}

// Values 按字段名的顺序返回去重后的值
func (m *FieldMatcher) Values(content string) []string {
	if m == nil {
		return nil
	}
	var values []string
	for _, re := range m.patterns {
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			values = append(values, NormalizeSlashes(match[1]))
		}
	}
	return lo.Uniq(values)
}

// uniqRefs 按归一化身份去重，保留首次出现的顺序
func uniqRefs(refs []Reference) []Reference {
	return lo.UniqBy(refs, func(r Reference) string {
		return NormalizeIdentity(r.Identity)
	})
}
