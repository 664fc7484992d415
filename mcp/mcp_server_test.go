package mcp

import (
	"testing"

	"github.com/willtrnr/nai2hta/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatTags(t *testing.T) {
	tests := []struct {
		name     string
		hash     string
		tags     []string
		contains []string
	}{
		{
			name:     "Empty tags",
			hash:     "deadbeef",
			tags:     []string{},
			contains: []string{"# 文件标签", "`deadbeef`", "没有标签"},
		},
		{
			name: "Multiple tags",
			hash: "deadbeef",
			tags: []string{"1girl", "solo", "uc:lowres"},
			contains: []string{
				"共 3 个标签",
				"1girl, solo, uc:lowres",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatTags(tt.hash, tt.tags)

			for _, expected := range tt.contains {
				assert.Contains(t, result, expected)
			}
		})
	}
}

func TestFormatTagCounts(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		results  []*models.TagCount
		contains []string
	}{
		{
			name:     "Empty results",
			query:    "girl",
			results:  []*models.TagCount{},
			contains: []string{"# 标签搜索: 'girl'", "没有找到标签"},
		},
		{
			name:  "Multiple results",
			query: "girl",
			results: []*models.TagCount{
				{Tag: "1girl", Count: 42},
				{Tag: "2girls", Count: 7},
			},
			contains: []string{
				"共 2 个标签",
				"**1girl**: 42 个文件",
				"**2girls**: 7 个文件",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatTagCounts(tt.query, tt.results)

			for _, expected := range tt.contains {
				assert.Contains(t, result, expected)
			}
		})
	}
}

func TestFormatNamespaces(t *testing.T) {
	assert.Contains(t, formatNamespaces(nil), "没有找到命名空间")

	result := formatNamespaces([]string{"model", "uc"})
	assert.Contains(t, result, "共 2 个命名空间")
	assert.Contains(t, result, "model, uc")
}

func TestFormatStats(t *testing.T) {
	result := formatStats(&models.ArchiveStats{
		Hashes:     10,
		Tags:       25,
		Mappings:   80,
		Namespaces: 3,
	})

	assert.Contains(t, result, "**文件**: 10")
	assert.Contains(t, result, "**标签**: 25")
	assert.Contains(t, result, "**映射**: 80")
	assert.Contains(t, result, "**命名空间**: 3")
}
