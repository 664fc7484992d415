package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources
func (s *MCPServer) registerResources() {
	// Resource 1: Top tags
	tagsResource := mcp.NewResource("archive://tags",
		"标签列表",
		mcp.WithMIMEType("text/markdown"),
		mcp.WithResourceDescription("归档中按文件数排序的标签"),
	)
	s.mcpServer.AddResource(tagsResource, s.handleTagsResource)

	// Resource 2: Namespaces
	namespacesResource := mcp.NewResource("archive://namespaces",
		"命名空间列表",
		mcp.WithMIMEType("text/markdown"),
		mcp.WithResourceDescription("归档中已知的全部命名空间"),
	)
	s.mcpServer.AddResource(namespacesResource, s.handleNamespacesResource)

	// Resource 3: Stats
	statsResource := mcp.NewResource("archive://stats",
		"归档统计",
		mcp.WithMIMEType("text/markdown"),
		mcp.WithResourceDescription("归档的文件/标签/映射/命名空间统计"),
	)
	s.mcpServer.AddResource(statsResource, s.handleStatsResource)
}

// Resource handlers

func (s *MCPServer) handleTagsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	// 空查询匹配所有标签,取热度前 100
	results, err := s.archive.SearchTags("", 100)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "archive://tags",
			MIMEType: "text/markdown",
			Text:     formatTagCounts("*", results),
		},
	}, nil
}

func (s *MCPServer) handleNamespacesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	namespaces, err := s.archive.Namespaces()
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "archive://namespaces",
			MIMEType: "text/markdown",
			Text:     formatNamespaces(namespaces),
		},
	}, nil
}

func (s *MCPServer) handleStatsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := s.archive.Stats()
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "archive://stats",
			MIMEType: "text/markdown",
			Text:     formatStats(stats),
		},
	}, nil
}
