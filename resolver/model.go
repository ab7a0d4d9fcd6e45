package resolver

import (
	"fmt"
	"path"
	"strings"

	"map-scraper/gametree"
	"map-scraper/parser"
)

// ModelVariants 模型主文件及其同名附属文件的后缀
var ModelVariants = []string{".mdl", ".vvd", ".phy", ".dx90.vtx", ".dx80.vtx", ".sw.vtx", ".ani"}

// Models 提取地图引用的模型、附属文件以及模型使用的材质
func (s *Session) Models(mapContent string) (PhaseReport, error) {
	report := PhaseReport{Phase: "models"}
	b := s.copier.Batch(hasSuffix(".mdl"))

	refs := parser.MapModels(mapContent)
	report.References = len(refs)

	for _, ref := range refs {
		if err := s.resolveModel(b, ref.Identity); err != nil {
			b.Wait()
			return report, err
		}
	}

	copied, err := b.Wait()
	report.Copied = copied
	report.Extracted = b.Extracted()
	return report, err
}

func (s *Session) resolveModel(b *Batch, model string) error {
	base := trimModelExt(model)
	for _, variant := range ModelVariants {
		b.Copy(base+variant, base+variant)
	}

	data, err := s.tree.ReadFile(model)
	if err != nil {
		if gametree.IsMissing(err) {
			s.log.Debug().Str("model", model).Msg("missing")
			return nil
		}
		return fmt.Errorf("read model %s: %w", model, err)
	}

	meta, err := parser.ReadModelMetadata(data)
	if err != nil {
		s.log.Debug().Err(err).Str("model", model).Msg("skipping model textures")
		return nil
	}

	for _, dir := range meta.TextureDirs {
		for _, texture := range meta.Textures {
			if err := s.ResolveMaterial(b, path.Join(dir, texture)); err != nil {
				return err
			}
		}
	}
	return nil
}

// trimModelExt 去掉 .mdl 后缀 (不区分大小写)
func trimModelExt(model string) string {
	if strings.HasSuffix(strings.ToLower(model), ".mdl") {
		return model[:len(model)-len(".mdl")]
	}
	return model
}
