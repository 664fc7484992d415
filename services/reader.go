package services

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/willtrnr/nai2hta/models"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// maxChunkSize 单块解码上限,防止损坏的长度字段撑爆内存
const maxChunkSize = 16 << 20

// MetadataReader 从 PNG 文件读取文本元数据块(tEXt/zTXt/iTXt)
type MetadataReader struct{}

// NewMetadataReader 创建 PNG 元数据读取器
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// ReadFile 读取文件的全部文本元数据,键为块内关键字
func (r *MetadataReader) ReadFile(path string) (models.FileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()
	return r.Read(f)
}

// Read 流式扫描 PNG 块序列,只解码文本块,其余按长度跳过。
// 到达 IEND 或流末尾即停止,元数据通常位于文件头部。
func (r *MetadataReader) Read(reader io.Reader) (models.FileMetadata, error) {
	br := bufio.NewReader(reader)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return nil, fmt.Errorf("读取 PNG 签名失败: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, fmt.Errorf("不是 PNG 文件")
	}

	info := models.FileMetadata{}
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if err == io.EOF {
				return info, nil
			}
			return nil, fmt.Errorf("读取块头失败: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		chunkType := string(header[4:8])

		if chunkType == "IEND" {
			return info, nil
		}

		switch chunkType {
		case "tEXt", "zTXt", "iTXt":
			if length > maxChunkSize {
				return nil, fmt.Errorf("文本块过大: %d 字节", length)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return nil, fmt.Errorf("读取文本块失败: %w", err)
			}
			key, value, err := decodeTextChunk(chunkType, data)
			if err != nil {
				return nil, fmt.Errorf("解码 %s 块失败: %w", chunkType, err)
			}
			info[key] = value
			// 跳过 CRC
			if _, err := io.CopyN(io.Discard, br, 4); err != nil {
				return nil, fmt.Errorf("跳过块校验失败: %w", err)
			}
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return nil, fmt.Errorf("跳过 %s 块失败: %w", chunkType, err)
			}
		}
	}
}

// decodeTextChunk 解码三种文本块的键值对。
// tEXt: 关键字 NUL 文本;zTXt: 关键字 NUL 压缩方法 压缩文本;
// iTXt: 关键字 NUL 压缩标志 压缩方法 语言 NUL 翻译关键字 NUL 文本。
func decodeTextChunk(chunkType string, data []byte) (string, string, error) {
	key, rest, found := bytes.Cut(data, []byte{0})
	if !found {
		return "", "", fmt.Errorf("缺少关键字分隔符")
	}

	switch chunkType {
	case "tEXt":
		return string(key), string(rest), nil

	case "zTXt":
		if len(rest) < 1 {
			return "", "", fmt.Errorf("缺少压缩方法字节")
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return "", "", err
		}
		return string(key), text, nil

	case "iTXt":
		if len(rest) < 2 {
			return "", "", fmt.Errorf("缺少压缩标志字节")
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		// 跳过语言标签与翻译关键字
		for i := 0; i < 2; i++ {
			_, tail, found := bytes.Cut(rest, []byte{0})
			if !found {
				return "", "", fmt.Errorf("缺少字段分隔符")
			}
			rest = tail
		}
		if compressed {
			text, err := inflate(rest)
			if err != nil {
				return "", "", err
			}
			return string(key), text, nil
		}
		return string(key), string(rest), nil
	}
	return "", "", fmt.Errorf("未知文本块类型: %s", chunkType)
}

// inflate zlib 解压(PNG 文本块唯一定义的压缩方法)
func inflate(data []byte) (string, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("解压失败: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxChunkSize))
	if err != nil {
		return "", fmt.Errorf("解压失败: %w", err)
	}
	return string(out), nil
}
