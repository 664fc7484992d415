package mcp

import (
	"fmt"
	"strings"

	"github.com/willtrnr/nai2hta/db"
	"github.com/willtrnr/nai2hta/models"

	"github.com/mark3labs/mcp-go/server"
)

// MCPServer wraps the MCP server with the tag archive
type MCPServer struct {
	archive   *db.Archive
	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(archive *db.Archive) *MCPServer {
	s := &MCPServer{
		archive: archive,
	}

	s.mcpServer = server.NewMCPServer(
		"nai2hta",
		"1.0.0",
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	// Register tools and resources
	s.registerTools()
	s.registerResources()

	return s
}

// Server returns the underlying MCP server
func (s *MCPServer) Server() *server.MCPServer {
	return s.mcpServer
}

// formatTags formats a file's tags as markdown
func formatTags(hash string, tags []string) string {
	if len(tags) == 0 {
		return fmt.Sprintf("# 文件标签\n\n文件 `%s` 没有标签。", hash)
	}

	var result strings.Builder
	result.WriteString("# 文件标签\n\n")
	result.WriteString(fmt.Sprintf("文件 `%s` 共 %d 个标签\n\n", hash, len(tags)))
	result.WriteString(strings.Join(tags, ", "))

	return result.String()
}

// formatTagCounts formats search results as markdown
func formatTagCounts(query string, results []*models.TagCount) string {
	if len(results) == 0 {
		return fmt.Sprintf("# 标签搜索: '%s'\n\n没有找到标签。", query)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("# 标签搜索: '%s'\n\n", query))
	result.WriteString(fmt.Sprintf("共 %d 个标签\n", len(results)))

	for _, tc := range results {
		result.WriteString(fmt.Sprintf("\n- **%s**: %d 个文件", tc.Tag, tc.Count))
	}

	return result.String()
}

// formatNamespaces formats namespaces as markdown
func formatNamespaces(namespaces []string) string {
	if len(namespaces) == 0 {
		return "# 命名空间列表\n\n没有找到命名空间。"
	}

	var result strings.Builder
	result.WriteString("# 命名空间列表\n\n")
	result.WriteString(fmt.Sprintf("共 %d 个命名空间\n\n", len(namespaces)))
	result.WriteString(strings.Join(namespaces, ", "))

	return result.String()
}

// formatStats formats archive stats as markdown
func formatStats(stats *models.ArchiveStats) string {
	var result strings.Builder
	result.WriteString("# 归档统计\n\n")
	result.WriteString(fmt.Sprintf("- **文件**: %d\n", stats.Hashes))
	result.WriteString(fmt.Sprintf("- **标签**: %d\n", stats.Tags))
	result.WriteString(fmt.Sprintf("- **映射**: %d\n", stats.Mappings))
	result.WriteString(fmt.Sprintf("- **命名空间**: %d\n", stats.Namespaces))

	return result.String()
}
