package utils

import (
	"encoding/hex"
	"fmt"
)

// IsHexHash 校验字符串是否为合法的十六进制内容哈希(非空且偶数长度)
func IsHexHash(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// DecodeHexHash 解码十六进制内容哈希为字节
func DecodeHexHash(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("非法的内容哈希 %q: %w", s, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("非法的内容哈希: 空串")
	}
	return b, nil
}

// TruncateHash 日志用的短哈希形式
func TruncateHash(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:12] + "…"
}
