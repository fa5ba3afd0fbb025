// Package key 提供治理签名使用的 secp256k1 密钥对
//
// 🔑 **密钥模型**：
//   - PublicKey：33字节压缩公钥（0x02/0x03 前缀），值语义，可自由复制和比较
//   - Keypair：私钥标量 + 派生公钥，私钥只能通过 SecretBytes 显式导出
//
// 🎲 **随机源**：
// KeyManager 的随机源可注入（WithRandom），默认使用 crypto/rand。
// 随机字节若不是有效标量（为零或不小于曲线阶）则重新抽取；随机源本身的读取错误直接返回。
package key

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/hash"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/secp256k1"
	"github.com/weisyn/govsign/pkg/types"
)

const (
	// SecretKeyLength 私钥长度
	SecretKeyLength = secp256k1.SecretKeyLength
	// PublicKeyLength 压缩公钥长度
	PublicKeyLength = secp256k1.CompressedPubKeyLength

	// maxGenerateAttempts 连续抽到无效标量的上限，正常随机源下概率可忽略
	maxGenerateAttempts = 128
)

var curve = secp256k1.NewCurve()

// ==================== 公钥 ====================

// PublicKey secp256k1 压缩公钥
//
// 零值不是有效公钥，只能通过 PublicKeyFromBytes / PublicKeyFromHex / Keypair.PublicKey 获得。
type PublicKey struct {
	compressed [PublicKeyLength]byte
	point      *btcec.PublicKey
}

// PublicKeyFromBytes 解析33字节压缩公钥
//
// 参数:
//   - b: 33字节压缩公钥
//
// 返回:
//   - PublicKey: 解析后的公钥
//   - error: 长度错误、前缀错误或不在曲线上时返回 ErrInvalidKey
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	point, err := curve.ParseCompressedPubKey(b)
	if err != nil {
		return PublicKey{}, err
	}
	return newPublicKey(point), nil
}

// PublicKeyFromHex 解析十六进制压缩公钥（允许 0x 前缀）
func PublicKeyFromHex(s string) (PublicKey, error) {
	raw, err := decodeHex(s)
	if err != nil {
		return PublicKey{}, &types.ErrInvalidKey{Reason: "公钥十六进制解码失败", Err: err}
	}
	return PublicKeyFromBytes(raw)
}

func newPublicKey(point *btcec.PublicKey) PublicKey {
	pk := PublicKey{point: point}
	copy(pk.compressed[:], point.SerializeCompressed())
	return pk
}

// Bytes 返回33字节压缩编码
func (pk PublicKey) Bytes() [PublicKeyLength]byte {
	return pk.compressed
}

// Uncompressed 返回65字节未压缩编码（0x04 前缀）
func (pk PublicKey) Uncompressed() [secp256k1.UncompressedPubKeyLength]byte {
	var out [secp256k1.UncompressedPubKeyLength]byte
	if pk.point != nil {
		copy(out[:], pk.point.SerializeUncompressed())
	}
	return out
}

// Point 返回底层曲线点，零值公钥返回 nil
func (pk PublicKey) Point() *btcec.PublicKey {
	return pk.point
}

// IsValid 是否为解析得到的有效公钥
func (pk PublicKey) IsValid() bool {
	return pk.point != nil
}

// Equal 按压缩编码比较
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.compressed == other.compressed
}

// Fingerprint 返回公钥的 Hash160 指纹（十六进制）
func (pk PublicKey) Fingerprint() string {
	fp := hash.Hash160(pk.compressed[:])
	return hex.EncodeToString(fp[:])
}

// String 返回压缩公钥的十六进制
func (pk PublicKey) String() string {
	return hex.EncodeToString(pk.compressed[:])
}

// MarshalText 实现 encoding.TextMarshaler
func (pk PublicKey) MarshalText() ([]byte, error) {
	if !pk.IsValid() {
		return nil, &types.ErrInvalidKey{Reason: "零值公钥"}
	}
	return []byte(pk.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := PublicKeyFromHex(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// ==================== 密钥对 ====================

// Keypair secp256k1 密钥对
type Keypair struct {
	secret *btcec.PrivateKey
	public PublicKey
}

func newKeypair(secret *btcec.PrivateKey) *Keypair {
	return &Keypair{
		secret: secret,
		public: newPublicKey(secret.PubKey()),
	}
}

// PublicKey 返回派生公钥
func (kp *Keypair) PublicKey() PublicKey {
	return kp.public
}

// PublicKeyBytes 返回33字节压缩公钥
func (kp *Keypair) PublicKeyBytes() [PublicKeyLength]byte {
	return kp.public.Bytes()
}

// SecretBytes 导出32字节私钥
//
// ⚠️ 返回值包含私钥原文，调用方负责在使用后用 SecureWipe 清除。
func (kp *Keypair) SecretBytes() [SecretKeyLength]byte {
	var out [SecretKeyLength]byte
	copy(out[:], kp.secret.Serialize())
	return out
}

// Secret 返回底层私钥，供签名使用
func (kp *Keypair) Secret() *btcec.PrivateKey {
	return kp.secret
}

// String 只输出公钥，私钥不会出现在日志或格式化输出中
func (kp *Keypair) String() string {
	return fmt.Sprintf("Keypair(%s)", kp.public)
}

// Zero 清除内存中的私钥标量
//
// 调用后该密钥对不可再用于签名。
func (kp *Keypair) Zero() {
	if kp.secret != nil {
		kp.secret.Zero()
	}
}

// ==================== 密钥管理器 ====================

// Option KeyManager 选项
type Option func(*KeyManager)

// WithRandom 注入随机源
func WithRandom(r io.Reader) Option {
	return func(km *KeyManager) {
		if r != nil {
			km.random = r
		}
	}
}

// KeyManager 生成和导入密钥对
type KeyManager struct {
	random io.Reader
}

// NewKeyManager 创建密钥管理器
func NewKeyManager(opts ...Option) *KeyManager {
	km := &KeyManager{random: rand.Reader}
	for _, opt := range opts {
		opt(km)
	}
	return km
}

// Generate 从随机源生成新的密钥对
func (km *KeyManager) Generate() (*Keypair, error) {
	return km.GenerateWithContext(context.Background())
}

// GenerateWithContext 生成密钥对，每次重新抽取前检查上下文
//
// 返回:
//   - *Keypair: 新密钥对
//   - error: 随机源读取失败或连续抽到无效标量时返回 ErrCryptographic；上下文取消时返回 ctx.Err()
func (km *KeyManager) GenerateWithContext(ctx context.Context) (*Keypair, error) {
	buf := make([]byte, SecretKeyLength)
	defer SecureWipe(buf)

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(km.random, buf); err != nil {
			return nil, &types.ErrCryptographic{Reason: "读取随机源失败", Err: err}
		}

		secret, err := curve.ParseSecretKey(buf)
		if err != nil {
			// 零或越界标量，重新抽取
			continue
		}
		return newKeypair(secret), nil
	}

	return nil, &types.ErrCryptographic{
		Reason: fmt.Sprintf("连续 %d 次未能抽取有效私钥标量", maxGenerateAttempts),
	}
}

// FromSecretBytes 从32字节私钥导入密钥对
//
// 私钥必须满足 0 < k < n，不做取模归约。
func (km *KeyManager) FromSecretBytes(secret []byte) (*Keypair, error) {
	priv, err := curve.ParseSecretKey(secret)
	if err != nil {
		return nil, err
	}
	return newKeypair(priv), nil
}

// FromSecretHex 从十六进制私钥导入密钥对（允许 0x 前缀和首尾空白）
func (km *KeyManager) FromSecretHex(s string) (*Keypair, error) {
	raw, err := decodeHex(s)
	if err != nil {
		return nil, &types.ErrInvalidKey{Reason: "私钥十六进制解码失败", Err: err}
	}
	defer SecureWipe(raw)
	return km.FromSecretBytes(raw)
}

// SecureWipe 清零字节切片
func SecureWipe(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

// ==================== 包级便捷函数 ====================

var defaultManager = NewKeyManager()

// Generate 使用系统随机源生成密钥对
func Generate() (*Keypair, error) {
	return defaultManager.Generate()
}

// FromSecretBytes 从32字节私钥导入密钥对
func FromSecretBytes(secret []byte) (*Keypair, error) {
	return defaultManager.FromSecretBytes(secret)
}
