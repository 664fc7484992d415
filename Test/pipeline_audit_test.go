package Test

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/willtrnr/nai2hta/db"
	"github.com/willtrnr/nai2hta/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 端到端审计: 合成 PNG 文件树 -> 批量导入 -> 归档内容与幂等性

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func writeChunk(buf *bytes.Buffer, chunkType string, data []byte) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	copy(header[4:], chunkType)
	buf.Write(header[:])
	buf.Write(data)
	buf.Write([]byte{0, 0, 0, 0}) // CRC 读取端不校验
}

func textChunk(key, value string) []byte {
	data := append([]byte(key), 0)
	return append(data, []byte(value)...)
}

func compressedTextChunk(key, value string) []byte {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write([]byte(value))
	zw.Close()
	data := append([]byte(key), 0, 0)
	return append(data, compressed.Bytes()...)
}

func buildPNG(texts map[string]string, compress bool) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	writeChunk(&buf, "IHDR", make([]byte, 13))
	for key, value := range texts {
		if compress {
			writeChunk(&buf, "zTXt", compressedTextChunk(key, value))
		} else {
			writeChunk(&buf, "tEXt", textChunk(key, value))
		}
	}
	writeChunk(&buf, "IDAT", []byte{0, 1, 2, 3})
	writeChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func fakeHash(seed byte) string {
	return strings.Repeat(string([]byte{'a' + seed%6, '0' + seed%10}), 32)
}

// writeClientFile 按 Hydrus 客户端文件布局落盘: client_files/f<前缀>/<哈希>.png
func writeClientFile(t *testing.T, root, hash string, data []byte) {
	t.Helper()
	dir := filepath.Join(root, "client_files", "f"+hash[:2])
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, hash+".png"), data, 0o644))
}

func TestImportPipeline(t *testing.T) {
	root := t.TempDir()

	novelAIHash := fakeHash(0)
	sdHash := fakeHash(1)
	bareHash := fakeHash(2)
	corruptHash := fakeHash(3)

	// NovelAI 原生元数据 (zTXt 压缩块)
	writeClientFile(t, root, novelAIHash, buildPNG(map[string]string{
		"Software":    "NovelAI",
		"Description": "{{masterpiece}}, 1girl, solo",
		"Source":      "NovelAI Diffusion 81274D13",
		"Comment":     `{"steps": 28, "sampler": "k_euler_ancestral", "seed": 42, "scale": 11.0, "noise": 0.2, "strength": 0.7, "uc": "lowres"}`,
	}, true))

	// SD-webui parameters 文本
	writeClientFile(t, root, sdHash, buildPNG(map[string]string{
		"parameters": "1girl, solo\nNegative prompt: lowres\nSteps: 20, Sampler: Euler a, CFG scale: 7, Size: 512x512, Model hash: abc123",
	}, false))

	// 没有任何可识别元数据的文件: 跳过
	writeClientFile(t, root, bareHash, buildPNG(map[string]string{"Title": "plain"}, false))

	// 损坏的文件: 记失败但不中断批次
	writeClientFile(t, root, corruptHash, []byte("not a png at all"))

	// 文件名不是十六进制哈希: 完全忽略
	writeClientFile(t, root, "not-a-hash", buildPNG(nil, false))

	archivePath := filepath.Join(t.TempDir(), "tags.hta.db")
	archive, err := db.OpenArchive(archivePath)
	require.NoError(t, err)
	defer archive.Close()

	importer := services.NewImporter(archive, services.NewMetadataReader(), services.NewTagDeriver(false), 1)
	stats, err := importer.Run(root)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Processed)
	assert.Equal(t, int64(2), stats.Tagged)
	assert.Equal(t, int64(1), stats.Skipped)
	assert.Equal(t, int64(1), stats.Failed)

	// NovelAI 文件: 提示词 + 模型 + uc + 固定参数
	tags, err := archive.TagsForHash(novelAIHash)
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"1girl",
		"masterpiece",
		"model:full",
		"noise:0.2",
		"sampler:k_euler_ancestral",
		"scale:11.0",
		"seed:42",
		"solo",
		"steps:28",
		"strength:0.7",
		"uc:lowres",
	}, tags)

	// SD 文件: size 不入库, 采样器走别名表
	tags, err = archive.TagsForHash(sdHash)
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"1girl",
		"model:abc123",
		"sampler:k_euler_ancestral",
		"scale:7",
		"solo",
		"steps:20",
		"uc:lowres",
	}, tags)

	// 跳过与失败的文件没有任何标签
	tags, err = archive.TagsForHash(bareHash)
	assert.NoError(t, err)
	assert.Empty(t, tags)

	// 重复导入幂等
	before, err := archive.Stats()
	require.NoError(t, err)
	_, err = importer.Run(root)
	require.NoError(t, err)
	after, err := archive.Stats()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestImportPipelineParallel(t *testing.T) {
	root := t.TempDir()

	for seed := byte(0); seed < 8; seed++ {
		writeClientFile(t, root, fakeHash(seed), buildPNG(map[string]string{
			"parameters": "1girl\nSteps: 20, Sampler: Euler, CFG scale: 7",
		}, false))
	}

	archivePath := filepath.Join(t.TempDir(), "tags.hta.db")
	archive, err := db.OpenArchive(archivePath)
	require.NoError(t, err)
	defer archive.Close()

	importer := services.NewImporter(archive, services.NewMetadataReader(), services.NewTagDeriver(false), 4)
	stats, err := importer.Run(root)
	require.NoError(t, err)

	assert.Equal(t, int64(8), stats.Processed)
	assert.Equal(t, int64(8), stats.Tagged)

	archiveStats, err := archive.Stats()
	require.NoError(t, err)
	assert.Equal(t, 8, archiveStats.Hashes)
	// 所有文件共享同一组标签
	assert.Equal(t, 4, archiveStats.Tags)
	assert.Equal(t, 32, archiveStats.Mappings)
}
