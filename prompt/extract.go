package prompt

import (
	"regexp"
	"strings"

	"github.com/willtrnr/nai2hta/models"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extract 宽容的单行标签提取:折叠空白,按 | 与 , 切分,丢弃首个冒号
// 之后的权重/取值标注,剥掉两端的括号类标点并转为小写,跳过空串。
// 相对完整文法这是有损的:分组标点按噪声处理而非结构,换取对畸形
// 输入的稳健性。永不失败,对自身输出是不动点。
func Extract(line string) []string {
	tags := []string{}
	collapsed := whitespaceRe.ReplaceAllString(line, " ")
	for _, mixing := range strings.Split(collapsed, "|") {
		for _, tag := range strings.Split(mixing, ",") {
			if i := strings.IndexByte(tag, ':'); i >= 0 {
				tag = tag[:i]
			}
			tag = strings.ToLower(strings.Trim(tag, "(){}[], "))
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// Extractor 标签提取策略:务实切分与严格文法解析可在调用点互换
type Extractor interface {
	Extract(line string) []string
}

// PragmaticExtractor 务实策略,生产管线的默认选择
type PragmaticExtractor struct{}

// Extract 见包级 Extract
func (PragmaticExtractor) Extract(line string) []string {
	return Extract(line)
}

// StrictExtractor 严格策略:完整文法解析,语法错误时回退到务实策略
type StrictExtractor struct{}

// Extract 解析成功时展平所有标签组,失败时回退
func (StrictExtractor) Extract(line string) []string {
	parsed, err := Parse(line)
	if err != nil {
		return Extract(line)
	}
	return flatten(parsed)
}

// flatten 将解析结果展平为小写标签序列,保留组内顺序
func flatten(parsed models.ParsedPrompt) []string {
	tags := []string{}
	for _, group := range parsed {
		for _, t := range group.Tags {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
