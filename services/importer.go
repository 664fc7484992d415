package services

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/willtrnr/nai2hta/db"
	"github.com/willtrnr/nai2hta/utils"
)

// ImportStats 一次批量导入的统计结果
type ImportStats struct {
	Processed int64 // 扫描到的文件总数
	Tagged    int64 // 成功写入标签的文件数
	Skipped   int64 // 无标签可派生的文件数
	Failed    int64 // 元数据损坏或不可读的文件数
	TagsAdded int64 // 写入的标签总数
}

// Importer 批量导入器:扫描文件树,读取元数据,派生标签并写入归档。
// 单个文件的读取或派生失败只记日志不中断批次,归档写入失败才是致命错误。
type Importer struct {
	archive *db.Archive
	reader  *MetadataReader
	deriver *TagDeriver
	workers int
}

// NewImporter 创建批量导入器,workers 为 1 时串行处理
func NewImporter(archive *db.Archive, reader *MetadataReader, deriver *TagDeriver, workers int) *Importer {
	return &Importer{
		archive: archive,
		reader:  reader,
		deriver: deriver,
		workers: workers,
	}
}

// Run 扫描 filesRoot 下的 client_files/f*/*.png 并导入全部文件。
// 文件名主干即内容哈希,非十六进制主干的文件跳过。
func (imp *Importer) Run(filesRoot string) (*ImportStats, error) {
	pattern := filepath.Join(filesRoot, "client_files", "f*", "*.png")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("扫描文件失败: %w", err)
	}
	log.Printf("🔍 扫描到 %d 个文件: %s", len(paths), pattern)

	stats := &ImportStats{}
	var mu sync.Mutex
	var fatal error
	handle := func(path string) {
		mu.Lock()
		stop := fatal != nil
		mu.Unlock()
		if stop {
			return
		}
		if err := imp.processFile(path, stats); err != nil {
			mu.Lock()
			if fatal == nil {
				fatal = err
			}
			mu.Unlock()
		}
	}

	if imp.workers <= 1 {
		for _, path := range paths {
			handle(path)
		}
	} else {
		pool := NewWorkerPool(imp.workers, handle)
		pool.Start()
		for _, path := range paths {
			pool.Submit(path)
		}
		pool.Stop()
	}

	if fatal != nil {
		return stats, fatal
	}
	log.Printf("📊 导入完成: 处理 %d, 写入 %d, 跳过 %d, 失败 %d, 新增标签 %d",
		stats.Processed, stats.Tagged, stats.Skipped, stats.Failed, stats.TagsAdded)
	return stats, nil
}

// processFile 处理单个文件,返回的错误视为致命(归档写入失败)
func (imp *Importer) processFile(path string, stats *ImportStats) error {
	hash := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !utils.IsHexHash(hash) {
		return nil
	}
	atomic.AddInt64(&stats.Processed, 1)

	info, err := imp.reader.ReadFile(path)
	if err != nil {
		log.Printf("⚠️ 读取元数据失败 %s: %v", utils.TruncateHash(hash), err)
		atomic.AddInt64(&stats.Failed, 1)
		return nil
	}

	tags, err := imp.deriver.Derive(info)
	if err != nil {
		log.Printf("⚠️ 派生标签失败 %s: %v", utils.TruncateHash(hash), err)
		atomic.AddInt64(&stats.Failed, 1)
		return nil
	}
	if tags.Len() == 0 {
		atomic.AddInt64(&stats.Skipped, 1)
		return nil
	}

	if err := imp.archive.AddTags(hash, tags); err != nil {
		return fmt.Errorf("写入归档失败 %s: %w", utils.TruncateHash(hash), err)
	}
	atomic.AddInt64(&stats.Tagged, 1)
	atomic.AddInt64(&stats.TagsAdded, int64(tags.Len()))
	log.Printf("✅ %s: 新增 %d 个标签", utils.TruncateHash(hash), tags.Len())
	return nil
}
