// Package bundle 提供签名文件与聚合签名包
//
// 📦 **流程**：
//  1. 每个维护者用 Sign 生成一个签名文件（signer、public_key、signature、message、signed_at）
//  2. Aggregator.Aggregate 收集多个签名文件，检查它们签署的是同一条消息，生成带 UUID 的签名包
//  3. 签名包通过 Signatures / IdentitySignatures 转换后交给扁平或嵌套多签验证
package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/govsign/internal/core/governance/multisig"
	"github.com/weisyn/govsign/internal/core/governance/nested"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/key"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/signature"
	"github.com/weisyn/govsign/pkg/types"
)

// FormatVersion 签名包格式版本
const FormatVersion = "1.0"

// SignatureFile 单个维护者的签名文件
type SignatureFile struct {
	Signer    string                `json:"signer"`
	PublicKey key.PublicKey         `json:"public_key"`
	Signature signature.Signature   `json:"signature"`
	Message   types.MessageEnvelope `json:"message"`
	SignedAt  time.Time             `json:"signed_at"`
}

// Entry 签名包中的一条签名
type Entry struct {
	Signer    string              `json:"signer"`
	PublicKey key.PublicKey       `json:"public_key"`
	Signature signature.Signature `json:"signature"`
	SignedAt  time.Time           `json:"signed_at"`
}

// Bundle 聚合签名包
type Bundle struct {
	ID             string                `json:"id"`
	Version        string                `json:"version"`
	Message        types.MessageEnvelope `json:"message"`
	SignatureCount int                   `json:"signature_count"`
	Signatures     []Entry               `json:"signatures"`
	Threshold      string                `json:"threshold,omitempty"`
	AggregatedAt   time.Time             `json:"aggregated_at"`
}

// AggregateResult 聚合结果
//
// ValidSigners 是签名与自身声明公钥匹配的不同公钥数量；
// 未指定门限时 ThresholdMet 在至少有一个有效签名时为 true。
type AggregateResult struct {
	Bundle       *Bundle `json:"bundle"`
	ValidSigners int     `json:"valid_signers"`
	ThresholdMet bool    `json:"threshold_met"`
}

// Option 聚合器选项
type Option func(*Aggregator)

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDGenerator 注入签名包 ID 生成器
func WithIDGenerator(gen func() string) Option {
	return func(a *Aggregator) {
		if gen != nil {
			a.newID = gen
		}
	}
}

// Aggregator 签名包聚合器
type Aggregator struct {
	now   func() time.Time
	newID func() string
}

// NewAggregator 创建聚合器
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sign 生成签名文件
func (a *Aggregator) Sign(kp *key.Keypair, signer string, msg types.Message) (*SignatureFile, error) {
	sig, err := signature.SignMessage(kp, msg)
	if err != nil {
		return nil, err
	}
	return &SignatureFile{
		Signer:    signer,
		PublicKey: kp.PublicKey(),
		Signature: sig,
		Message:   types.MessageEnvelope{Message: msg},
		SignedAt:  a.now(),
	}, nil
}

// Aggregate 聚合签名文件
//
// 参数：
//   - files: 签名文件，至少一个
//   - threshold: 可选的 "N-of-M" 门限，空字符串表示不检查
//
// 返回：
//   - error: 没有签名文件或消息不一致返回 ErrMessageFormat；门限格式错误按 ParseThreshold 返回
func (a *Aggregator) Aggregate(files []*SignatureFile, threshold string) (*AggregateResult, error) {
	if len(files) == 0 {
		return nil, &types.ErrMessageFormat{Reason: "没有可聚合的签名文件"}
	}

	need := 1
	if threshold != "" {
		n, _, err := multisig.ParseThreshold(threshold)
		if err != nil {
			return nil, err
		}
		need = n
	}

	first := files[0].Message.Message
	if first == nil {
		return nil, &types.ErrMessageFormat{Reason: "第 0 个签名文件缺少消息"}
	}
	message := first.SigningBytes()

	entries := make([]Entry, 0, len(files))
	validKeys := make(map[[key.PublicKeyLength]byte]struct{})
	for i, f := range files {
		if f.Message.Message == nil {
			return nil, &types.ErrMessageFormat{Reason: fmt.Sprintf("第 %d 个签名文件缺少消息", i)}
		}
		if !bytes.Equal(f.Message.Message.SigningBytes(), message) {
			return nil, &types.ErrMessageFormat{
				Reason: fmt.Sprintf("第 %d 个签名文件签署的消息与第 0 个不一致", i),
			}
		}
		entries = append(entries, Entry{
			Signer:    f.Signer,
			PublicKey: f.PublicKey,
			Signature: f.Signature,
			SignedAt:  f.SignedAt,
		})
		if signature.Verify(f.Signature, message, f.PublicKey) {
			validKeys[f.PublicKey.Bytes()] = struct{}{}
		}
	}

	b := &Bundle{
		ID:             a.newID(),
		Version:        FormatVersion,
		Message:        types.MessageEnvelope{Message: first},
		SignatureCount: len(entries),
		Signatures:     entries,
		Threshold:      threshold,
		AggregatedAt:   a.now(),
	}

	return &AggregateResult{
		Bundle:       b,
		ValidSigners: len(validKeys),
		ThresholdMet: len(validKeys) >= need,
	}, nil
}

// String 聚合结果摘要
func (r *AggregateResult) String() string {
	return fmt.Sprintf("bundle %s: %d signatures, %d valid signers, threshold met: %t",
		r.Bundle.ID, r.Bundle.SignatureCount, r.ValidSigners, r.ThresholdMet)
}

// String 签名文件摘要
func (f *SignatureFile) String() string {
	return fmt.Sprintf("%s (%s) signed %q: %s", f.Signer, f.PublicKey.Fingerprint(), f.Message.Message, f.Signature)
}

// SigningBytes 返回签名包消息的规范字节
func (b *Bundle) SigningBytes() []byte {
	if b.Message.Message == nil {
		return nil
	}
	return b.Message.Message.SigningBytes()
}

// SignatureList 返回用于扁平多签验证的签名列表
func (b *Bundle) SignatureList() []signature.Signature {
	out := make([]signature.Signature, len(b.Signatures))
	for i, e := range b.Signatures {
		out[i] = e.Signature
	}
	return out
}

// IdentitySignatures 返回用于嵌套多签验证的身份签名列表，signer 作为身份
func (b *Bundle) IdentitySignatures() []nested.IdentitySignature {
	out := make([]nested.IdentitySignature, len(b.Signatures))
	for i, e := range b.Signatures {
		out[i] = nested.IdentitySignature{Identity: e.Signer, Signature: e.Signature}
	}
	return out
}

// ==================== 文件读写 ====================

// ReadSignatureFile 读取签名文件
func ReadSignatureFile(path string) (*SignatureFile, error) {
	var f SignatureFile
	if err := readJSON(path, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ReadBundle 读取签名包
func ReadBundle(path string) (*Bundle, error) {
	var b Bundle
	if err := readJSON(path, &b); err != nil {
		return nil, err
	}
	if b.Message.Message == nil {
		return nil, &types.ErrMessageFormat{Reason: "签名包缺少消息"}
	}
	return &b, nil
}

// WriteJSON 以缩进 JSON 写入文件
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &types.ErrSerialization{Reason: "编码 JSON", Err: err}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取文件 %s 失败: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &types.ErrSerialization{Reason: fmt.Sprintf("解析 %s", path), Err: err}
	}
	return nil
}
