package db

import (
	"database/sql"
	"fmt"

	"github.com/willtrnr/nai2hta/models"
	"github.com/willtrnr/nai2hta/utils"
)

// TagsForHash 查询一个内容哈希的全部标签(规范文本,按字典序)
func (a *Archive) TagsForHash(contentHash string) ([]string, error) {
	hashBytes, err := utils.DecodeHexHash(contentHash)
	if err != nil {
		return nil, err
	}

	rows, err := a.conn.Query(`
		SELECT t.tag FROM hashes h
		JOIN mappings m ON m.hash_id = h.hash_id
		JOIN tags t ON t.tag_id = m.tag_id
		WHERE h.hash = ?
		ORDER BY t.tag`, hashBytes)
	if err != nil {
		return nil, fmt.Errorf("查询文件标签失败: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("查询文件标签失败: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// SearchTags 按子串搜索标签,附带每个标签的映射文件数,按热度降序
func (a *Archive) SearchTags(query string, limit int) ([]*models.TagCount, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := a.conn.Query(`
		SELECT t.tag, COUNT(m.hash_id) FROM tags t
		LEFT JOIN mappings m ON m.tag_id = t.tag_id
		WHERE t.tag LIKE '%' || ? || '%'
		GROUP BY t.tag_id
		ORDER BY COUNT(m.hash_id) DESC, t.tag
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("搜索标签失败: %w", err)
	}
	defer rows.Close()

	results := []*models.TagCount{}
	for rows.Next() {
		tc := &models.TagCount{}
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("搜索标签失败: %w", err)
		}
		results = append(results, tc)
	}
	return results, rows.Err()
}

// Namespaces 返回归档中已知的命名空间(按字典序)
func (a *Archive) Namespaces() ([]string, error) {
	rows, err := a.conn.Query("SELECT namespace FROM namespaces ORDER BY namespace")
	if err != nil {
		return nil, fmt.Errorf("查询命名空间失败: %w", err)
	}
	defer rows.Close()

	namespaces := []string{}
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("查询命名空间失败: %w", err)
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces, rows.Err()
}

// Stats 返回归档的行数统计
func (a *Archive) Stats() (*models.ArchiveStats, error) {
	stats := &models.ArchiveStats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM hashes", &stats.Hashes},
		{"SELECT COUNT(*) FROM tags", &stats.Tags},
		{"SELECT COUNT(*) FROM mappings", &stats.Mappings},
		{"SELECT COUNT(*) FROM namespaces", &stats.Namespaces},
	}
	for _, c := range counts {
		if err := a.conn.QueryRow(c.query).Scan(c.dest); err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("查询归档统计失败: %w", err)
		}
	}
	return stats, nil
}
