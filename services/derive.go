package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/willtrnr/nai2hta/models"
	"github.com/willtrnr/nai2hta/prompt"
)

// modelAliases 已知模型权重哈希前缀到规范模型名的映射
var modelAliases = map[string]string{
	"81274d13": "full",
	"925997e9": "full",
	"1d44365e": "curated",
	"1d4a34af": "curated",
}

// samplerAliases 采样器别名到规范采样器名的映射
var samplerAliases = map[string]string{
	"euler a": "k_euler_ancestral",
	"euler":   "k_euler",
}

// novelAIParams NovelAI 元数据中按固定顺序提取的生成参数字段
var novelAIParams = []string{"steps", "sampler", "seed", "scale", "noise", "strength"}

// TagDeriver 从文件元数据派生标签集合,按元数据方言分发
type TagDeriver struct {
	extractor prompt.Extractor
}

// NewTagDeriver 创建标签派生器,strict 为 true 时提示词走完整文法解析
func NewTagDeriver(strict bool) *TagDeriver {
	var extractor prompt.Extractor = prompt.PragmaticExtractor{}
	if strict {
		extractor = prompt.StrictExtractor{}
	}
	return &TagDeriver{extractor: extractor}
}

// Derive 按元数据方言派生标签:NovelAI 原生元数据优先,其次
// SD-webui 的 parameters 文本。两者都不匹配时返回 nil 集合,
// 调用方按"无标签可派生"处理而非错误。
func (d *TagDeriver) Derive(info models.FileMetadata) (models.TagSet, error) {
	if info["Software"] == "NovelAI" {
		return d.DeriveNovelAI(info)
	}
	if info["parameters"] != "" {
		return d.DeriveSD(info["parameters"])
	}
	return nil, nil
}

// DeriveNovelAI 从 NovelAI 原生元数据派生标签。
// Description 为正向提示词,Comment 为 JSON 编码的生成参数,
// uc 字段为负向提示词。三个字段缺一视为元数据损坏。
func (d *TagDeriver) DeriveNovelAI(info models.FileMetadata) (models.TagSet, error) {
	description, ok := info["Description"]
	if !ok {
		return nil, fmt.Errorf("缺少 Description 字段")
	}
	source, ok := info["Source"]
	if !ok {
		return nil, fmt.Errorf("缺少 Source 字段")
	}
	comment, ok := info["Comment"]
	if !ok {
		return nil, fmt.Errorf("缺少 Comment 字段")
	}

	tags := models.NewTagSet()
	for _, t := range d.extractor.Extract(description) {
		tags.Add(models.NewTag(t))
	}
	tags.Add(models.NewNamespacedTag("model", identifyModel(source)))

	// UseNumber 保留数字参数的原文形式,"12.0" 不会变成 "12"
	params := map[string]any{}
	decoder := json.NewDecoder(strings.NewReader(comment))
	decoder.UseNumber()
	if err := decoder.Decode(&params); err != nil {
		return nil, fmt.Errorf("解析 Comment 参数失败: %w", err)
	}

	uc, ok := params["uc"].(string)
	if !ok {
		return nil, fmt.Errorf("缺少 uc 参数")
	}
	for _, t := range d.extractor.Extract(uc) {
		tags.Add(models.NewNamespacedTag("uc", t))
	}

	for _, name := range novelAIParams {
		tags.Add(models.NewNamespacedTag(name, stringifyParam(params[name])))
	}
	return tags, nil
}

// DeriveSD 从 SD-webui 的 parameters 文本派生标签。格式为:
// 首块为正向提示词(可跨行),可选 "Negative prompt: " 引导的负向
// 提示词,末行为逗号分隔的 "键: 值" 参数对。
func (d *TagDeriver) DeriveSD(parameters string) (models.TagSet, error) {
	lines := strings.Split(parameters, "\n")
	if len(lines) < 2 {
		// 没有参数行,不是可识别的 parameters 文本
		return models.NewTagSet(), nil
	}

	tags := models.NewTagSet()
	namespace := ""
	for _, line := range lines[:len(lines)-1] {
		if rest, ok := strings.CutPrefix(line, "Negative prompt: "); ok {
			namespace = "uc"
			line = rest
		}
		for _, t := range d.extractor.Extract(line) {
			tags.Add(models.Tag{Namespace: namespace, Value: t})
		}
	}

	paramLine := strings.ToLower(lines[len(lines)-1])
	for _, pair := range strings.Split(paramLine, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), ": ")
		if !found {
			return nil, fmt.Errorf("无法解析参数对: %q", pair)
		}
		switch key {
		case "size":
			// 尺寸不是标签
		case "model hash":
			tags.Add(models.NewNamespacedTag("model", identifyModel(value)))
		case "cfg scale":
			tags.Add(models.NewNamespacedTag("scale", value))
		case "sampler":
			if alias, ok := samplerAliases[value]; ok {
				value = alias
			}
			tags.Add(models.NewNamespacedTag("sampler", value))
		default:
			tags.Add(models.NewNamespacedTag(key, value))
		}
	}
	return tags, nil
}

// identifyModel 取名称的最后一个空格分隔段(权重哈希)查别名表,
// 未知哈希原样返回小写形式
func identifyModel(name string) string {
	fields := strings.Split(name, " ")
	hash := strings.ToLower(fields[len(fields)-1])
	if alias, ok := modelAliases[hash]; ok {
		return alias
	}
	return hash
}

// stringifyParam 参数值转标签文本:缺失或 null 记为 "none",
// 数字保留 JSON 原文
func stringifyParam(v any) string {
	switch val := v.(type) {
	case nil:
		return "none"
	case string:
		return strings.ToLower(val)
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return strings.ToLower(fmt.Sprintf("%v", val))
	}
}
