// Package signature 提供治理消息的签名与验证
//
// 🎯 **签名流程**：
//  1. digest = SHA256(消息规范字节)，单次哈希
//  2. RFC6979 确定性 ECDSA 签名（secp256k1，低 S）
//  3. 以64字节紧凑格式（r||s）存储和传输
//
// 验证不匹配返回 false，不返回错误。签名对象在构造时已校验格式，验证阶段不会遇到格式错误。
package signature

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/hash"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/key"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/secp256k1"
	"github.com/weisyn/govsign/pkg/types"
)

const (
	// SignatureLength 紧凑签名长度 r+s
	SignatureLength = secp256k1.CompactSignatureLength
	// DigestLength 签名摘要长度
	DigestLength = hash.DigestLength
)

var curve = secp256k1.NewCurve()

// Signature 64字节紧凑 ECDSA 签名
//
// 值语义，按字节比较。零值不能通过任何验证。
type Signature struct {
	compact [SignatureLength]byte
}

// FromBytes 解析64字节紧凑签名
//
// 只检查长度和 r、s 是否小于曲线阶；签名是否对某条消息有效由 Verify 判断。
func FromBytes(b []byte) (Signature, error) {
	if _, err := curve.ParseCompactSignature(b); err != nil {
		return Signature{}, err
	}
	var sig Signature
	copy(sig.compact[:], b)
	return sig, nil
}

// FromHex 解析十六进制紧凑签名（允许 0x 前缀）
func FromHex(s string) (Signature, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Signature{}, &types.ErrInvalidSignatureFormat{Reason: "十六进制解码失败", Err: err}
	}
	return FromBytes(raw)
}

// FromDER 解析 DER 编码签名并转换为紧凑格式
func FromDER(der []byte) (Signature, error) {
	parsed, err := curve.ParseDERSignature(der)
	if err != nil {
		return Signature{}, err
	}
	return Signature{compact: curve.SerializeCompact(parsed)}, nil
}

// Bytes 返回64字节紧凑编码
func (s Signature) Bytes() [SignatureLength]byte {
	return s.compact
}

// DER 返回 DER 编码
func (s Signature) DER() []byte {
	parsed, err := curve.ParseCompactSignature(s.compact[:])
	if err != nil {
		return nil
	}
	return parsed.Serialize()
}

// Equal 按字节比较
func (s Signature) Equal(other Signature) bool {
	return s.compact == other.compact
}

// String 返回紧凑编码的十六进制
func (s Signature) String() string {
	return hex.EncodeToString(s.compact[:])
}

// MarshalText 实现 encoding.TextMarshaler
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Digest 计算签名摘要 SHA256(message)
func Digest(message []byte) [DigestLength]byte {
	return hash.SHA256(message)
}

// Sign 对消息字节签名
//
// 参数:
//   - kp: 签名密钥对
//   - message: 规范消息字节
//
// 返回:
//   - Signature: 紧凑签名
//   - error: 摘要构造失败时返回 ErrCryptographic
func Sign(kp *key.Keypair, message []byte) (Signature, error) {
	if kp == nil || kp.Secret() == nil {
		return Signature{}, &types.ErrCryptographic{Reason: "签名密钥对为空"}
	}
	digest := Digest(message)
	sig, err := curve.SignHash(kp.Secret(), digest[:])
	if err != nil {
		return Signature{}, err
	}
	return Signature{compact: curve.SerializeCompact(sig)}, nil
}

// SignMessage 对治理消息的规范字节签名
func SignMessage(kp *key.Keypair, msg types.Message) (Signature, error) {
	if msg == nil {
		return Signature{}, &types.ErrMessageFormat{Reason: "消息为空"}
	}
	return Sign(kp, msg.SigningBytes())
}

// Verify 验证签名是否由公钥对应的私钥对消息字节签署
func Verify(sig Signature, message []byte, pk key.PublicKey) bool {
	digest := Digest(message)
	ok, _ := VerifyDigest(sig, digest[:], pk)
	return ok
}

// VerifyMessage 验证治理消息签名
func VerifyMessage(sig Signature, msg types.Message, pk key.PublicKey) bool {
	if msg == nil {
		return false
	}
	return Verify(sig, msg.SigningBytes(), pk)
}

// VerifyDigest 对预先计算的32字节摘要验证签名
//
// 摘要长度错误是调用方缺陷，返回 ErrCryptographic；签名不匹配返回 (false, nil)。
func VerifyDigest(sig Signature, digest []byte, pk key.PublicKey) (bool, error) {
	if len(digest) != DigestLength {
		return false, &types.ErrCryptographic{
			Reason: "验证摘要",
			Err:    &secp256k1.ErrInvalidHashLength{Expected: DigestLength, Got: len(digest)},
		}
	}
	if !pk.IsValid() {
		return false, nil
	}
	parsed, err := curve.ParseCompactSignature(sig.compact[:])
	if err != nil {
		return false, nil
	}
	return curve.VerifySignature(pk.Point(), digest, parsed), nil
}

// VerifyMultiple 逐个判断签名是否能被公钥集合中任意一个公钥验证
//
// 返回与 sigs 等长的结果，第 i 项对应 sigs[i]。
func VerifyMultiple(sigs []Signature, message []byte, pks []key.PublicKey) []bool {
	digest := Digest(message)
	results := make([]bool, len(sigs))
	for i, sig := range sigs {
		for _, pk := range pks {
			if ok, _ := VerifyDigest(sig, digest[:], pk); ok {
				results[i] = true
				break
			}
		}
	}
	return results
}

// ParseList 解析十六进制签名列表
func ParseList(hexSigs []string) ([]Signature, error) {
	sigs := make([]Signature, 0, len(hexSigs))
	for i, h := range hexSigs {
		sig, err := FromHex(h)
		if err != nil {
			return nil, fmt.Errorf("第 %d 个签名: %w", i, err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}
