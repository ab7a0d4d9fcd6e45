package resolver

import (
	"fmt"

	"map-scraper/gametree"
	"map-scraper/parser"
)

// ResolveMaterial 复制一个材质并递归展开它引用的材质和贴图
// ref 相对于 materials/，可带或不带 .vmt 后缀。材质不存在时直接返回。
// 材质身份在整个运行中只处理一次，循环引用 (A -> B -> A) 也能终止。
func (s *Session) ResolveMaterial(b *Batch, ref string) error {
	id := parser.NormalizeIdentity(ref)
	if id == "" || !s.materials.Add(id) {
		return nil
	}

	rel := "materials/" + parser.StripExtension(parser.NormalizeSlashes(ref)) + ".vmt"
	data, err := s.tree.ReadFile(rel)
	if err != nil {
		if gametree.IsMissing(err) {
			s.log.Debug().Str("material", rel).Msg("missing")
			return nil
		}
		return fmt.Errorf("read material %s: %w", rel, err)
	}
	b.Copy(rel, rel)

	doc := parser.ParseVMT(string(data))

	for _, nested := range parser.MaterialRefs(doc, s.registry.Materials) {
		if err := s.ResolveMaterial(b, nested.Identity); err != nil {
			return err
		}
	}

	for _, texture := range parser.TextureRefs(doc, s.registry.Textures) {
		s.ResolveTexture(b, texture.Identity)
	}

	return nil
}

// ResolveTexture 复制贴图及其 HDR 版本，每个贴图身份只尝试一次
func (s *Session) ResolveTexture(b *Batch, ref string) {
	id := parser.NormalizeIdentity(ref)
	if id == "" || !s.textures.Add(id) {
		return
	}

	base := "materials/" + parser.StripExtension(parser.NormalizeSlashes(ref))
	b.Copy(base+".vtf", base+".vtf")
	b.Copy(base+".hdr.vtf", base+".hdr.vtf")
}

// Materials 提取地图引用的材质 (含天空盒) 以及地图直接引用的贴图
func (s *Session) Materials(mapContent string) (PhaseReport, error) {
	report := PhaseReport{Phase: "materials"}
	b := s.copier.Batch(hasSuffix(".vmt"))

	refs := parser.MapMaterials(mapContent)
	report.References = len(refs)

	for _, ref := range refs {
		if err := s.ResolveMaterial(b, ref.Identity); err != nil {
			b.Wait()
			return report, err
		}
	}

	for _, texture := range parser.MapTextures(mapContent, s.textureFields) {
		s.ResolveTexture(b, texture.Identity)
	}

	copied, err := b.Wait()
	report.Copied = copied
	report.Extracted = b.Extracted()
	return report, err
}
