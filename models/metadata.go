package models

// FileMetadata 从图片容器中提取出的键值元数据
type FileMetadata map[string]string

// ArchiveStats 归档统计信息
type ArchiveStats struct {
	Hashes     int `json:"hashes"`
	Tags       int `json:"tags"`
	Mappings   int `json:"mappings"`
	Namespaces int `json:"namespaces"`
}

// TagCount 标签及其映射的文件数量
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
