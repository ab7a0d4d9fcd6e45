package resolver

import (
	"fmt"
	"strings"

	"map-scraper/gametree"
	"map-scraper/parser"

	"github.com/samber/lo"
)

// SoundscapeFile 地图对应的 soundscape 脚本
func SoundscapeFile(mapName string) string {
	return fmt.Sprintf("scripts/soundscapes_%s.txt", mapName)
}

// Sounds 提取声音: soundscape 脚本中的 wave 条目加上地图中声音字段的值
func (s *Session) Sounds(mapContent, mapName string) (PhaseReport, error) {
	report := PhaseReport{Phase: "sounds"}
	b := s.copier.Batch(func(dst string) bool {
		return strings.HasPrefix(dst, "sound/")
	})

	var refs []parser.Reference

	if strings.Contains(mapContent, "soundscape") {
		rel := SoundscapeFile(mapName)
		data, err := s.tree.ReadFile(rel)
		switch {
		case err == nil:
			b.Copy(rel, rel)
			refs = append(refs, parser.SoundscapeWaves(string(data))...)
		case gametree.IsMissing(err):
			s.log.Debug().Str("soundscape", rel).Msg("missing")
		default:
			b.Wait()
			return report, fmt.Errorf("read soundscape %s: %w", rel, err)
		}
	}

	refs = append(refs, parser.MapSounds(mapContent, s.soundFields)...)
	refs = lo.UniqBy(refs, func(r parser.Reference) string {
		return strings.ToLower(r.Identity)
	})
	report.References = len(refs)

	for _, ref := range refs {
		rel := "sound/" + ref.Identity
		b.Copy(rel, rel)
	}

	copied, err := b.Wait()
	report.Copied = copied
	report.Extracted = b.Extracted()
	return report, err
}
