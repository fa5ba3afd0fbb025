package types

import (
	"errors"
	"fmt"
)

// ErrorKind 治理签名错误类别
//
// 类别是封闭集合，展示层（CLI、日志）按类别做穷举分支。
type ErrorKind int

const (
	// KindUnknown 非治理签名错误
	KindUnknown ErrorKind = iota
	// KindInvalidKey 密钥字节格式错误或超出曲线范围
	KindInvalidKey
	// KindInvalidSignatureFormat 签名字节格式错误
	KindInvalidSignatureFormat
	// KindInvalidThreshold 门限不满足 0 < threshold <= total
	KindInvalidThreshold
	// KindInvalidMultisig 公钥数量不符、公钥重复或团队成员不足
	KindInvalidMultisig
	// KindInsufficientSignatures 提交的签名数少于门限（密码学验证之前检测）
	KindInsufficientSignatures
	// KindCryptographic 摘要或签名构造的内部失败
	KindCryptographic
	// KindMessageFormat 消息格式错误
	KindMessageFormat
	// KindSerialization 编解码失败
	KindSerialization
)

// String 返回类别名称
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidKey:
		return "invalid_key"
	case KindInvalidSignatureFormat:
		return "invalid_signature_format"
	case KindInvalidThreshold:
		return "invalid_threshold"
	case KindInvalidMultisig:
		return "invalid_multisig"
	case KindInsufficientSignatures:
		return "insufficient_signatures"
	case KindCryptographic:
		return "cryptographic"
	case KindMessageFormat:
		return "message_format"
	case KindSerialization:
		return "serialization"
	default:
		return "unknown"
	}
}

// KindOf 返回错误链中第一个治理错误的类别
func KindOf(err error) ErrorKind {
	var kinded interface{ Kind() ErrorKind }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return KindUnknown
}

// ErrInvalidKey 无效密钥
type ErrInvalidKey struct {
	Reason string
	Err    error
}

func (e *ErrInvalidKey) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("无效的密钥: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("无效的密钥: %s", e.Reason)
}

func (e *ErrInvalidKey) Unwrap() error { return e.Err }

// Kind 实现类别接口
func (e *ErrInvalidKey) Kind() ErrorKind { return KindInvalidKey }

// ErrInvalidSignatureFormat 无效的签名格式
type ErrInvalidSignatureFormat struct {
	Reason string
	Err    error
}

func (e *ErrInvalidSignatureFormat) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("无效的签名格式: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("无效的签名格式: %s", e.Reason)
}

func (e *ErrInvalidSignatureFormat) Unwrap() error { return e.Err }

// Kind 实现类别接口
func (e *ErrInvalidSignatureFormat) Kind() ErrorKind { return KindInvalidSignatureFormat }

// ErrInvalidThreshold 无效门限
type ErrInvalidThreshold struct {
	Threshold int
	Total     int
}

func (e *ErrInvalidThreshold) Error() string {
	return fmt.Sprintf("无效的门限: threshold=%d, total=%d", e.Threshold, e.Total)
}

// Kind 实现类别接口
func (e *ErrInvalidThreshold) Kind() ErrorKind { return KindInvalidThreshold }

// ErrInvalidMultisig 无效的多签配置
type ErrInvalidMultisig struct {
	Reason string
}

func (e *ErrInvalidMultisig) Error() string {
	return fmt.Sprintf("无效的多签配置: %s", e.Reason)
}

// Kind 实现类别接口
func (e *ErrInvalidMultisig) Kind() ErrorKind { return KindInvalidMultisig }

// ErrInsufficientSignatures 签名数量不足
type ErrInsufficientSignatures struct {
	Got  int
	Need int
}

func (e *ErrInsufficientSignatures) Error() string {
	return fmt.Sprintf("签名数量不足: 需要 %d 个，实际 %d 个", e.Need, e.Got)
}

// Kind 实现类别接口
func (e *ErrInsufficientSignatures) Kind() ErrorKind { return KindInsufficientSignatures }

// ErrCryptographic 密码学内部错误
type ErrCryptographic struct {
	Reason string
	Err    error
}

func (e *ErrCryptographic) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("密码学错误: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("密码学错误: %s", e.Reason)
}

func (e *ErrCryptographic) Unwrap() error { return e.Err }

// Kind 实现类别接口
func (e *ErrCryptographic) Kind() ErrorKind { return KindCryptographic }

// ErrMessageFormat 消息格式错误
type ErrMessageFormat struct {
	Reason string
}

func (e *ErrMessageFormat) Error() string {
	return fmt.Sprintf("消息格式错误: %s", e.Reason)
}

// Kind 实现类别接口
func (e *ErrMessageFormat) Kind() ErrorKind { return KindMessageFormat }

// ErrSerialization 序列化错误
type ErrSerialization struct {
	Reason string
	Err    error
}

func (e *ErrSerialization) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("序列化错误: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("序列化错误: %s", e.Reason)
}

func (e *ErrSerialization) Unwrap() error { return e.Err }

// Kind 实现类别接口
func (e *ErrSerialization) Kind() ErrorKind { return KindSerialization }
