package mcp

import (
	"context"
	"fmt"

	"github.com/willtrnr/nai2hta/utils"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers all MCP tools
func (s *MCPServer) registerTools() {
	// Tool 1: Get file tags
	fileTagsTool := mcp.NewTool("get_file_tags",
		mcp.WithDescription("按内容哈希查询一个文件的全部标签"),
		mcp.WithString("hash",
			mcp.Required(),
			mcp.Description("文件内容的十六进制哈希"),
		),
	)
	s.mcpServer.AddTool(fileTagsTool, s.handleGetFileTags)

	// Tool 2: Search tags
	searchTool := mcp.NewTool("search_tags",
		mcp.WithDescription("按子串搜索标签,返回每个标签的文件数"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("搜索关键词"),
		),
		mcp.WithNumber("limit",
			mcp.Description("返回数量上限,默认 50"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchTags)

	// Tool 3: Get namespaces
	namespacesTool := mcp.NewTool("get_namespaces",
		mcp.WithDescription("列出归档中已知的命名空间"),
	)
	s.mcpServer.AddTool(namespacesTool, s.handleGetNamespaces)

	// Tool 4: Archive stats
	statsTool := mcp.NewTool("archive_stats",
		mcp.WithDescription("获取归档的文件/标签/映射/命名空间统计"),
	)
	s.mcpServer.AddTool(statsTool, s.handleArchiveStats)
}

// Tool handlers

func (s *MCPServer) handleGetFileTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash := request.GetString("hash", "")
	if !utils.IsHexHash(hash) {
		return mcp.NewToolResultError("hash parameter must be a hex content hash"), nil
	}

	tags, err := s.archive.TagsForHash(hash)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get file tags: %v", err)), nil
	}

	return mcp.NewToolResultText(formatTags(hash, tags)), nil
}

func (s *MCPServer) handleSearchTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter required"), nil
	}
	limit := int(request.GetFloat("limit", 50))

	results, err := s.archive.SearchTags(query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to search tags: %v", err)), nil
	}

	return mcp.NewToolResultText(formatTagCounts(query, results)), nil
}

func (s *MCPServer) handleGetNamespaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	namespaces, err := s.archive.Namespaces()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get namespaces: %v", err)), nil
	}

	return mcp.NewToolResultText(formatNamespaces(namespaces)), nil
}

func (s *MCPServer) handleArchiveStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.archive.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get archive stats: %v", err)), nil
	}

	return mcp.NewToolResultText(formatStats(stats)), nil
}
