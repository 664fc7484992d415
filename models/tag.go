package models

import "sort"

// Tag 标签数据模型:纯文本标签或带命名空间的标签。
// 规范文本形式为 "<namespace>:<value>",纯文本标签的规范文本不含冒号。
// 规范文本相同即视为同一标签,与派生来源无关。标签一经产生不可变。
type Tag struct {
	Namespace string `json:"namespace,omitempty"`
	Value     string `json:"value"`
}

// NewTag 创建纯文本标签
func NewTag(value string) Tag {
	return Tag{Value: value}
}

// NewNamespacedTag 创建带命名空间的标签
func NewNamespacedTag(namespace, value string) Tag {
	return Tag{Namespace: namespace, Value: value}
}

// IsNamespaced 是否带命名空间
func (t Tag) IsNamespaced() bool {
	return t.Namespace != ""
}

// Canonical 返回规范文本形式
func (t Tag) Canonical() string {
	if t.Namespace != "" {
		return t.Namespace + ":" + t.Value
	}
	return t.Value
}

// TagSet 一个文件的标签集合(按规范文本去重,无序)
type TagSet map[string]Tag

// NewTagSet 创建空标签集合
func NewTagSet() TagSet {
	return TagSet{}
}

// Add 加入标签(规范文本相同的标签只保留一份)
func (s TagSet) Add(t Tag) {
	s[t.Canonical()] = t
}

// Contains 是否包含指定规范文本的标签
func (s TagSet) Contains(canonical string) bool {
	_, ok := s[canonical]
	return ok
}

// Len 标签数量
func (s TagSet) Len() int {
	return len(s)
}

// Canonicals 返回排序后的规范文本列表(便于日志与测试)
func (s TagSet) Canonicals() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
