package models

// TagGroup 语法解析产生的一组标签片段及其可选权重。
// 片段顺序与源文本中的出现顺序一致。
type TagGroup struct {
	Tags   []string `json:"tags"`
	Weight *float64 `json:"weight,omitempty"`
}

// ParsedPrompt 按源文本顺序排列的标签组序列
type ParsedPrompt []TagGroup
