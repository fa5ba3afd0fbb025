// Package multisig 提供扁平 N-of-M 多重签名策略
//
// 🎯 **职责**：
// 持有不可变的门限配置（threshold、total、有序且互不重复的公钥列表），
// 判断一组签名是否达到门限。
//
// **匹配规则**：
//   - 每个签名按公钥顺序扫描，记录第一个验证通过且尚未被认领的公钥索引
//   - 每个公钥在一次验证中最多计数一次，同一私钥的多个签名只算一个签署者
//   - 签名数少于门限时在任何密码学计算之前返回 ErrInsufficientSignatures
package multisig

import (
	"fmt"

	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/key"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/signature"
	"github.com/weisyn/govsign/pkg/types"
)

// Multisig 扁平多签配置，构造后不可变
type Multisig struct {
	threshold  int
	total      int
	publicKeys []key.PublicKey
}

// New 创建多签配置
//
// 参数：
//   - threshold: 需要的最少有效签名数（N）
//   - total: 授权公钥数量（M）
//   - publicKeys: 授权公钥列表，长度必须等于 total 且互不重复
//
// 返回：
//   - *Multisig: 多签配置
//   - error: threshold 为 0 或大于 total 返回 ErrInvalidThreshold；
//     公钥数量不符或存在重复公钥返回 ErrInvalidMultisig
func New(threshold, total int, publicKeys []key.PublicKey) (*Multisig, error) {
	if threshold <= 0 || threshold > total {
		return nil, &types.ErrInvalidThreshold{Threshold: threshold, Total: total}
	}

	if len(publicKeys) != total {
		return nil, &types.ErrInvalidMultisig{
			Reason: fmt.Sprintf("期望 %d 个公钥，实际 %d 个", total, len(publicKeys)),
		}
	}

	seen := make(map[[key.PublicKeyLength]byte]int, len(publicKeys))
	for i, pk := range publicKeys {
		if !pk.IsValid() {
			return nil, &types.ErrInvalidMultisig{Reason: fmt.Sprintf("第 %d 个公钥无效", i)}
		}
		if first, dup := seen[pk.Bytes()]; dup {
			return nil, &types.ErrInvalidMultisig{
				Reason: fmt.Sprintf("公钥重复: 第 %d 个与第 %d 个相同", i, first),
			}
		}
		seen[pk.Bytes()] = i
	}

	keys := make([]key.PublicKey, len(publicKeys))
	copy(keys, publicKeys)

	return &Multisig{
		threshold:  threshold,
		total:      total,
		publicKeys: keys,
	}, nil
}

// Verify 验证签名集合是否达到门限
//
// 返回：
//   - bool: 有效签署者数量 >= threshold
//   - error: 签名数量少于门限时返回 ErrInsufficientSignatures
func (m *Multisig) Verify(message []byte, signatures []signature.Signature) (bool, error) {
	_, approved, err := m.Evaluate(message, signatures)
	return approved, err
}

// Evaluate 验证签名集合并返回匹配到的公钥索引
//
// 返回：
//   - []int: 有效签名匹配到的公钥索引，顺序同 CollectValidSignatures
//   - bool: 有效签署者数量 >= threshold
//   - error: 签名数量少于门限时返回 ErrInsufficientSignatures，不做任何密码学计算
func (m *Multisig) Evaluate(message []byte, signatures []signature.Signature) ([]int, bool, error) {
	if len(signatures) < m.threshold {
		return nil, false, &types.ErrInsufficientSignatures{Got: len(signatures), Need: m.threshold}
	}

	valid := m.CollectValidSignatures(message, signatures)
	return valid, len(valid) >= m.threshold, nil
}

// VerifyMessage 验证治理消息的签名集合
func (m *Multisig) VerifyMessage(msg types.Message, signatures []signature.Signature) (bool, error) {
	if msg == nil {
		return false, &types.ErrMessageFormat{Reason: "消息为空"}
	}
	return m.Verify(msg.SigningBytes(), signatures)
}

// CollectValidSignatures 返回有效签名匹配到的公钥索引
//
// 结果按签名提交顺序排列；未匹配任何公钥的签名不产生索引，
// 已被前面签名认领的公钥不会再次匹配。
func (m *Multisig) CollectValidSignatures(message []byte, signatures []signature.Signature) []int {
	digest := signature.Digest(message)
	claimed := make([]bool, len(m.publicKeys))
	indices := make([]int, 0, len(signatures))

	for _, sig := range signatures {
		for j, pk := range m.publicKeys {
			if claimed[j] {
				continue
			}
			if ok, _ := signature.VerifyDigest(sig, digest[:], pk); ok {
				claimed[j] = true
				indices = append(indices, j)
				break
			}
		}
	}

	return indices
}

// IsValidSignature 返回签名匹配的第一个公钥索引
func (m *Multisig) IsValidSignature(sig signature.Signature, message []byte) (int, bool) {
	digest := signature.Digest(message)
	for i, pk := range m.publicKeys {
		if ok, _ := signature.VerifyDigest(sig, digest[:], pk); ok {
			return i, true
		}
	}
	return -1, false
}

// Threshold 返回门限
func (m *Multisig) Threshold() int {
	return m.threshold
}

// Total 返回授权公钥数量
func (m *Multisig) Total() int {
	return m.total
}

// PublicKeys 返回授权公钥列表的副本
func (m *Multisig) PublicKeys() []key.PublicKey {
	keys := make([]key.PublicKey, len(m.publicKeys))
	copy(keys, m.publicKeys)
	return keys
}

// String 返回 "N-of-M"
func (m *Multisig) String() string {
	return FormatThreshold(m.threshold, m.total)
}
