package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/willtrnr/nai2hta/api"
	"github.com/willtrnr/nai2hta/config"
	"github.com/willtrnr/nai2hta/db"
	"github.com/willtrnr/nai2hta/mcp"
	"github.com/willtrnr/nai2hta/services"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 加载配置失败: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ 配置验证失败: %v", err)
	}

	// 2. 选择运行模式: 默认批量导入, serve 启动查询服务
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "serve" {
		runServe(cfg)
		return
	}
	runImport(cfg, args)
}

// runImport 批量导入模式: nai2hta [files_root [archive_path]]
// 位置参数覆盖环境变量配置
func runImport(cfg *config.Config, args []string) {
	filesRoot := cfg.FilesRoot
	archivePath := cfg.ArchivePath
	if len(args) > 0 {
		filesRoot = args[0]
	}
	if len(args) > 1 {
		archivePath = args[1]
	}

	archive, err := db.OpenArchive(archivePath)
	if err != nil {
		log.Fatalf("❌ 打开归档失败: %v", err)
	}
	defer archive.Close()

	deriver := services.NewTagDeriver(cfg.StrictPrompt)
	reader := services.NewMetadataReader()
	importer := services.NewImporter(archive, reader, deriver, cfg.ImportWorkers)

	log.Printf("🚀 开始导入: %s -> %s (工作协程 %d)", filesRoot, archivePath, cfg.ImportWorkers)
	if _, err := importer.Run(filesRoot); err != nil {
		log.Fatalf("❌ 导入失败: %v", err)
	}
}

// runServe 查询服务模式: REST API 加 MCP 端点
func runServe(cfg *config.Config) {
	if err := cfg.ValidateServe(); err != nil {
		log.Fatalf("❌ 配置验证失败: %v", err)
	}

	archive, err := db.OpenArchive(cfg.ArchivePath)
	if err != nil {
		log.Fatalf("❌ 打开归档失败: %v", err)
	}
	defer archive.Close()

	// 设置 API 处理器依赖
	api.SetArchive(archive)

	// 限流器
	var rateLimiter *api.RateLimiter
	if cfg.RateLimitEnabled {
		rateLimiter = api.NewRateLimiter(cfg.RateLimitPerIP, cfg.RateLimitBurst)
	}

	// MCP 服务器
	mcpSrv := mcp.NewMCPServer(archive)
	httpServer := server.NewStreamableHTTPServer(mcpSrv.Server())
	log.Printf("✅ MCP 服务器初始化成功")

	// 路由
	mux := http.NewServeMux()

	// MCP HTTP 端点
	mux.Handle("/mcp/", http.StripPrefix("/mcp", httpServer))

	// 健康检查端点(不需要认证)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// 归档查询 API
	mux.HandleFunc("/api/files/", requireGet(api.HandleFileTags))
	mux.HandleFunc("/api/tags", requireGet(api.HandleSearchTags))
	mux.HandleFunc("/api/namespaces", requireGet(api.HandleNamespaces))
	mux.HandleFunc("/api/stats", requireGet(api.HandleStats))

	// 应用中间件
	handler := api.LoggingMiddleware(mux)
	handler = api.AuthMiddleware(cfg.APIToken)(handler)
	handler = api.RateLimitMiddleware(rateLimiter)(handler)
	handler = api.RecoveryMiddleware(handler)

	// 启动服务器
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("🚀 服务器启动: http://localhost%s", addr)
	log.Printf("📚 REST API: http://localhost%s/api/tags", addr)
	log.Printf("🔗 MCP 端点: http://localhost%s/mcp", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("❌ 服务器启动失败: %v", err)
	}
}

// requireGet 只允许 GET 方法
func requireGet(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			http.Error(w, "方法不允许", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}
