// Package hash 提供治理签名使用的哈希函数
//
// 🎯 **用途**：
//   - SHA256：签名前的消息摘要（单次 SHA-256）
//   - DoubleSHA256：链上兼容场景的双重摘要
//   - Hash160：公钥指纹 RIPEMD160(SHA256(pubkey))，用于日志和输出中标识维护者
package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // 公钥指纹沿用比特币的 Hash160 定义
)

const (
	// DigestLength SHA-256 摘要长度
	DigestLength = sha256.Size
	// Hash160Length RIPEMD-160 摘要长度
	Hash160Length = ripemd160.Size
)

// HashService 提供哈希计算功能
type HashService struct{}

// NewHashService 创建新的哈希服务
func NewHashService() *HashService {
	return &HashService{}
}

// SHA256 计算SHA-256哈希
//
// 参数:
//   - data: 要计算哈希的数据
//
// 返回:
//   - [32]byte: SHA-256哈希结果
func (s *HashService) SHA256(data []byte) [DigestLength]byte {
	return sha256.Sum256(data)
}

// DoubleSHA256 计算双重SHA-256哈希
func (s *HashService) DoubleSHA256(data []byte) [DigestLength]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// RIPEMD160 计算RIPEMD-160哈希
func (s *HashService) RIPEMD160(data []byte) [Hash160Length]byte {
	var out [Hash160Length]byte
	hasher := ripemd160.New()
	hasher.Write(data)
	copy(out[:], hasher.Sum(nil))
	return out
}

// Hash160 计算 RIPEMD160(SHA256(data))
func (s *HashService) Hash160(data []byte) [Hash160Length]byte {
	first := sha256.Sum256(data)
	return s.RIPEMD160(first[:])
}

// HashReader 流式计算 SHA-256
//
// 读取错误原样返回，调用方负责包装。
func (s *HashService) HashReader(r io.Reader) ([DigestLength]byte, error) {
	var out [DigestLength]byte
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return out, err
	}
	copy(out[:], hasher.Sum(nil))
	return out, nil
}

// HashFile 计算文件内容的 SHA-256
func (s *HashService) HashFile(path string) ([DigestLength]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [DigestLength]byte{}, fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()

	digest, err := s.HashReader(f)
	if err != nil {
		return digest, fmt.Errorf("读取文件失败: %w", err)
	}
	return digest, nil
}

// ConstantTimeCompare 在常量时间内比较两个哈希值是否相等
// 用于防止时序攻击，无论何时都会比较整个字节数组
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

var defaultService = NewHashService()

// SHA256 使用默认服务计算SHA-256
func SHA256(data []byte) [DigestLength]byte {
	return defaultService.SHA256(data)
}

// Hash160 使用默认服务计算 RIPEMD160(SHA256(data))
func Hash160(data []byte) [Hash160Length]byte {
	return defaultService.Hash160(data)
}
