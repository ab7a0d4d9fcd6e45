package resolver

import (
	"fmt"
	"strings"

	"map-scraper/gametree"
	"map-scraper/parser"
)

// AuxVariants maps/ 下与地图同名的附属文件，%s 为地图名
var AuxVariants = []string{
	"%s.ain",
	"graphs/%s.ain",
	"%s.nav",
	"thumb/%s.png",
	"%s_particles.txt",
}

// AuxResult 附属文件阶段的结果
type AuxResult struct {
	PhaseReport
	Files []string `json:"files"` // 找到的附属文件
	Pack  []string `json:"pack"`  // 需要打包进 .bsp 的文件
}

// ParticleManifest 地图对应的粒子清单
func ParticleManifest(mapName string) string {
	return fmt.Sprintf("maps/%s_particles.txt", mapName)
}

// Auxiliary 收集导航网格、节点图、缩略图、粒子清单等附属文件
// 粒子清单引用的 .pcf 会被扫描，其中嵌入的材质再交给 ResolveMaterial 处理。
func (s *Session) Auxiliary(mapName string) (*AuxResult, error) {
	result := &AuxResult{PhaseReport: PhaseReport{Phase: "publish"}}
	// 只有清单中的附属文件计入 Extracted，粒子材质和 soundscape 不算
	listed := make(map[string]bool)
	addFile := func(file string) {
		result.Files = append(result.Files, file)
		listed[strings.ToLower(gametree.CleanPath(file))] = true
	}
	b := s.copier.Batch(func(dst string) bool { return listed[dst] })

	fail := func(err error) (*AuxResult, error) {
		b.Wait()
		return result, err
	}

	for _, variant := range AuxVariants {
		rel := "maps/" + fmt.Sprintf(variant, mapName)
		ok, err := s.tree.Exists(rel)
		if err != nil {
			return fail(fmt.Errorf("check %s: %w", rel, err))
		}
		if ok {
			addFile(rel)
		}
	}

	manifest := ParticleManifest(mapName)
	data, err := s.tree.ReadFile(manifest)
	switch {
	case err == nil:
		result.Pack = append(result.Pack, manifest)
		for _, file := range parser.ParticleFiles(string(data)) {
			addFile(file)
			if !strings.HasSuffix(strings.ToLower(file), ".pcf") {
				continue
			}
			if err := s.resolveParticle(b, file); err != nil {
				return fail(err)
			}
		}
	case !gametree.IsMissing(err):
		return fail(fmt.Errorf("read particle manifest %s: %w", manifest, err))
	}

	soundscape := SoundscapeFile(mapName)
	ok, err := s.tree.Exists(soundscape)
	if err != nil {
		return fail(fmt.Errorf("check %s: %w", soundscape, err))
	}
	if ok {
		b.Copy(soundscape, soundscape)
		result.Pack = append(result.Pack, soundscape)
	}

	for _, file := range result.Files {
		b.Copy(file, file)
	}
	result.References = len(result.Files)

	copied, err := b.Wait()
	result.Copied = copied
	result.Extracted = b.Extracted()
	return result, err
}

// resolveParticle 扫描 .pcf 中嵌入的材质路径
func (s *Session) resolveParticle(b *Batch, file string) error {
	raw, err := s.tree.ReadFile(file)
	if err != nil {
		if gametree.IsMissing(err) {
			s.log.Debug().Str("particle", file).Msg("missing")
			return nil
		}
		return fmt.Errorf("read particle %s: %w", file, err)
	}

	for _, ref := range parser.ParticleMaterials(raw) {
		if err := s.ResolveMaterial(b, ref.Identity); err != nil {
			return err
		}
	}
	return nil
}
