// Package secp256k1 提供 secp256k1 椭圆曲线封装
//
// 🎯 **设计目的**：
// 封装 btcd/btcec 与 decred secp256k1 的实现，对外提供治理签名所需的最小曲线接口：
// 私钥标量校验、压缩公钥解析、紧凑/DER 签名转换、摘要签名与验证。
// 通过封装层隔离第三方库依赖，上层只看到本包的函数和治理错误类型。
package secp256k1

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	dcrsecp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/weisyn/govsign/pkg/types"
)

const (
	// SecretKeyLength 私钥标量长度
	SecretKeyLength = 32
	// CompressedPubKeyLength 压缩公钥长度
	CompressedPubKeyLength = 33
	// UncompressedPubKeyLength 未压缩公钥长度
	UncompressedPubKeyLength = 65
	// CompactSignatureLength 紧凑签名长度（r+s）
	CompactSignatureLength = 64
	// HashLength 签名摘要长度
	HashLength = 32

	pubKeyCompressedEven byte = 0x02
	pubKeyCompressedOdd  byte = 0x03
)

// Curve 封装 secp256k1 椭圆曲线
type Curve struct{}

// NewCurve 创建新的 secp256k1 曲线实例
func NewCurve() *Curve {
	return &Curve{}
}

// ParseSecretKey 解析32字节私钥标量
//
// 标量必须满足 0 < k < n，不做取模归约：越界的字节串直接拒绝。
func (c *Curve) ParseSecretKey(secret []byte) (*btcec.PrivateKey, error) {
	if len(secret) != SecretKeyLength {
		return nil, &types.ErrInvalidKey{
			Reason: fmt.Sprintf("私钥长度应为 %d 字节，实际 %d 字节", SecretKeyLength, len(secret)),
		}
	}

	var scalar dcrsecp.ModNScalar
	if overflow := scalar.SetByteSlice(secret); overflow {
		return nil, &types.ErrInvalidKey{Reason: "私钥不小于曲线阶"}
	}
	if scalar.IsZero() {
		return nil, &types.ErrInvalidKey{Reason: "私钥为零"}
	}

	return dcrsecp.NewPrivateKey(&scalar), nil
}

// ParseCompressedPubKey 解析33字节压缩公钥
func (c *Curve) ParseCompressedPubKey(pubKey []byte) (*btcec.PublicKey, error) {
	if len(pubKey) != CompressedPubKeyLength {
		return nil, &types.ErrInvalidKey{
			Reason: fmt.Sprintf("公钥长度应为 %d 字节，实际 %d 字节", CompressedPubKeyLength, len(pubKey)),
		}
	}
	if pubKey[0] != pubKeyCompressedEven && pubKey[0] != pubKeyCompressedOdd {
		return nil, &types.ErrInvalidKey{Reason: fmt.Sprintf("无效的压缩公钥前缀 0x%02x", pubKey[0])}
	}

	parsed, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return nil, &types.ErrInvalidKey{Reason: "公钥不在曲线上", Err: err}
	}
	return parsed, nil
}

// ParseCompactSignature 解析64字节紧凑签名（32字节 r + 32字节 s）
func (c *Curve) ParseCompactSignature(sig []byte) (*ecdsa.Signature, error) {
	if len(sig) != CompactSignatureLength {
		return nil, &types.ErrInvalidSignatureFormat{
			Reason: fmt.Sprintf("签名长度应为 %d 字节，实际 %d 字节", CompactSignatureLength, len(sig)),
		}
	}

	var r, s dcrsecp.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return nil, &types.ErrInvalidSignatureFormat{Reason: "r 不小于曲线阶"}
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return nil, &types.ErrInvalidSignatureFormat{Reason: "s 不小于曲线阶"}
	}

	return ecdsa.NewSignature(&r, &s), nil
}

// ParseDERSignature 解析严格 DER 编码的签名
func (c *Curve) ParseDERSignature(sig []byte) (*ecdsa.Signature, error) {
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return nil, &types.ErrInvalidSignatureFormat{Reason: "DER 解析失败", Err: err}
	}
	return parsed, nil
}

// SerializeCompact 返回签名的64字节紧凑编码
func (c *Curve) SerializeCompact(sig *ecdsa.Signature) [CompactSignatureLength]byte {
	var out [CompactSignatureLength]byte
	var rBytes, sBytes [32]byte

	r := sig.R()
	s := sig.S()
	r.PutBytes(&rBytes)
	s.PutBytes(&sBytes)

	copy(out[:32], rBytes[:])
	copy(out[32:], sBytes[:])
	return out
}

// SignHash 对32字节摘要进行 RFC6979 确定性 ECDSA 签名（低 S 规范化）
func (c *Curve) SignHash(priv *btcec.PrivateKey, hash []byte) (*ecdsa.Signature, error) {
	if len(hash) != HashLength {
		return nil, &types.ErrCryptographic{
			Reason: "签名摘要",
			Err:    &ErrInvalidHashLength{Expected: HashLength, Got: len(hash)},
		}
	}
	return ecdsa.Sign(priv, hash), nil
}

// VerifySignature 验证 secp256k1 签名
//
// 不匹配返回 false；摘要长度错误属于调用方缺陷，同样返回 false。
func (c *Curve) VerifySignature(pubKey *btcec.PublicKey, hash []byte, sig *ecdsa.Signature) bool {
	if len(hash) != HashLength || pubKey == nil || sig == nil {
		return false
	}
	return sig.Verify(hash, pubKey)
}

// ErrInvalidHashLength 哈希长度无效
type ErrInvalidHashLength struct {
	Expected int
	Got      int
}

func (e *ErrInvalidHashLength) Error() string {
	return fmt.Sprintf("无效的哈希长度: 期望 %d 字节，实际 %d 字节", e.Expected, e.Got)
}
