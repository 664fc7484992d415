package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/willtrnr/nai2hta/db"
	"github.com/willtrnr/nai2hta/utils"
)

var archive *db.Archive

// SetArchive 注入归档实例
func SetArchive(a *db.Archive) {
	archive = a
}

// GET /api/files/{hash}/tags - 查询文件的全部标签
func HandleFileTags(w http.ResponseWriter, r *http.Request) {
	// 路径格式: /api/files/{hash}/tags
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[3] != "tags" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	hash := parts[2]
	if !utils.IsHexHash(hash) {
		http.Error(w, "非法的内容哈希", http.StatusBadRequest)
		return
	}

	tags, err := archive.TagsForHash(hash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"hash":  hash,
		"count": len(tags),
		"tags":  tags,
	})
}

// GET /api/tags?q=...&limit=... - 搜索标签
func HandleSearchTags(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "缺少查询参数 q", http.StatusBadRequest)
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	results, err := archive.SearchTags(query, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// GET /api/namespaces - 列出已知命名空间
func HandleNamespaces(w http.ResponseWriter, r *http.Request) {
	namespaces, err := archive.Namespaces()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(namespaces)
}

// GET /api/stats - 归档统计
func HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := archive.Stats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
