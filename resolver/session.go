package resolver

import (
	"fmt"
	"strings"

	"map-scraper/gametree"
	"map-scraper/keywords"
	"map-scraper/parser"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
)

// Options 创建 Session 所需的参数
type Options struct {
	Tree      *gametree.Tree
	Registry  *keywords.Registry
	OutputDir string
	Pool      *ants.Pool // 为空时同步复制
	Ignore    Matcher
	Logger    zerolog.Logger
}

// Session 一次提取运行的全部状态
// 贴图和材质各有一个 VisitedSet，整个递归过程共享同一份。
type Session struct {
	tree      *gametree.Tree
	registry  *keywords.Registry
	outputDir string
	copier    *Copier
	log       zerolog.Logger

	textures  *VisitedSet
	materials *VisitedSet

	// 字段正则按本次的关键字表编译一次
	soundFields   *parser.FieldMatcher
	textureFields *parser.FieldMatcher
}

// PhaseReport 单个阶段的统计
type PhaseReport struct {
	Phase      string `json:"phase"`
	References int    `json:"references"` // 提取到的引用，不论文件是否存在
	Extracted  int    `json:"extracted"`  // 主文件复制成功的引用
	Copied     int    `json:"copied"`     // 复制的全部文件，含贴图等附带文件
}

func NewSession(opts Options) *Session {
	registry := opts.Registry
	if registry == nil {
		registry = keywords.Default()
	}

	return &Session{
		tree:      opts.Tree,
		registry:  registry,
		outputDir: opts.OutputDir,
		copier:    NewCopier(opts.Tree, opts.OutputDir, opts.Pool, opts.Ignore, opts.Logger),
		log:       opts.Logger,
		textures:  NewVisitedSet(),
		materials: NewVisitedSet(),

		soundFields:   parser.NewFieldMatcher(registry.Sounds),
		textureFields: parser.NewFieldMatcher(parser.MapTextureKeys),
	}
}

// hasSuffix 生成按后缀判断主文件的函数
func hasSuffix(ext string) func(string) bool {
	return func(dst string) bool { return strings.HasSuffix(dst, ext) }
}

// Textures 已处理的贴图身份数量
func (s *Session) Textures() int { return s.textures.Len() }

// MaterialsVisited 已处理的材质身份数量
func (s *Session) MaterialsVisited() int { return s.materials.Len() }

// LoadIgnore 读取 gitignore 语法的忽略列表
func LoadIgnore(path string) (Matcher, error) {
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("load ignore file %s: %w", path, err)
	}
	return matcher, nil
}

// IgnoreLines 由若干行规则构建忽略列表
func IgnoreLines(lines ...string) Matcher {
	return ignore.CompileIgnoreLines(lines...)
}
