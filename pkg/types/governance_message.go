package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MessageType 治理消息类型标签
type MessageType string

const (
	// MessageTypeRelease 版本发布
	MessageTypeRelease MessageType = "release"
	// MessageTypeModuleApproval 模块批准
	MessageTypeModuleApproval MessageType = "module_approval"
	// MessageTypeBudgetDecision 预算决议
	MessageTypeBudgetDecision MessageType = "budget_decision"
)

// 规范签名字节的类型前缀
const (
	releaseTag = "RELEASE"
	moduleTag  = "MODULE"
	budgetTag  = "BUDGET"
)

// Message 可被维护者签名的治理消息
//
// 封闭的和类型：只有本包中的 Release、ModuleApproval、BudgetDecision 实现该接口。
// 字段完全相同的两条消息在签名意义上不可区分。
type Message interface {
	// SigningBytes 返回规范签名字节：TAG:字段1:字段2（字段原样拼接，不转义 ':'）
	SigningBytes() []byte
	// Description 返回人类可读描述
	Description() string
	// Type 返回类型标签
	Type() MessageType

	sealed()
}

// Release 版本发布消息
type Release struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
}

// ModuleApproval 模块批准消息
type ModuleApproval struct {
	ModuleName string `json:"module_name"`
	Version    string `json:"version"`
}

// BudgetDecision 预算决议消息，金额单位为 satoshi
type BudgetDecision struct {
	Amount  uint64 `json:"amount"`
	Purpose string `json:"purpose"`
}

func (Release) sealed()        {}
func (ModuleApproval) sealed() {}
func (BudgetDecision) sealed() {}

// SigningBytes RELEASE:{version}:{commit_hash}
func (m Release) SigningBytes() []byte {
	return []byte(releaseTag + ":" + m.Version + ":" + m.CommitHash)
}

// SigningBytes MODULE:{module_name}:{version}
func (m ModuleApproval) SigningBytes() []byte {
	return []byte(moduleTag + ":" + m.ModuleName + ":" + m.Version)
}

// SigningBytes BUDGET:{amount}:{purpose}
func (m BudgetDecision) SigningBytes() []byte {
	return []byte(budgetTag + ":" + strconv.FormatUint(m.Amount, 10) + ":" + m.Purpose)
}

func (m Release) Description() string {
	return fmt.Sprintf("Release %s (commit: %s)", m.Version, m.CommitHash)
}

func (m ModuleApproval) Description() string {
	return fmt.Sprintf("Approve module %s version %s", m.ModuleName, m.Version)
}

func (m BudgetDecision) Description() string {
	return fmt.Sprintf("Budget decision: %d satoshis for %s", m.Amount, m.Purpose)
}

func (m Release) String() string        { return m.Description() }
func (m ModuleApproval) String() string { return m.Description() }
func (m BudgetDecision) String() string { return m.Description() }

func (Release) Type() MessageType        { return MessageTypeRelease }
func (ModuleApproval) Type() MessageType { return MessageTypeModuleApproval }
func (BudgetDecision) Type() MessageType { return MessageTypeBudgetDecision }

// EncodeMessage 返回消息的规范签名字节
func EncodeMessage(m Message) []byte {
	return m.SigningBytes()
}

// MessageEnvelope 带类型标签的消息 JSON 封装
//
// 格式：{"type":"release","payload":{"version":"v1.0.0","commit_hash":"abc123"}}
type MessageEnvelope struct {
	Message Message
}

type rawEnvelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON 实现 json.Marshaler
func (e MessageEnvelope) MarshalJSON() ([]byte, error) {
	if e.Message == nil {
		return nil, &ErrMessageFormat{Reason: "消息为空"}
	}
	payload, err := json.Marshal(e.Message)
	if err != nil {
		return nil, &ErrSerialization{Reason: "编码消息负载", Err: err}
	}
	return json.Marshal(rawEnvelope{Type: e.Message.Type(), Payload: payload})
}

// UnmarshalJSON 实现 json.Unmarshaler
func (e *MessageEnvelope) UnmarshalJSON(data []byte) error {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ErrSerialization{Reason: "解析消息封装", Err: err}
	}

	var msg Message
	switch raw.Type {
	case MessageTypeRelease:
		var m Release
		if err := decodePayload(raw.Payload, &m); err != nil {
			return err
		}
		msg = m
	case MessageTypeModuleApproval:
		var m ModuleApproval
		if err := decodePayload(raw.Payload, &m); err != nil {
			return err
		}
		msg = m
	case MessageTypeBudgetDecision:
		var m BudgetDecision
		if err := decodePayload(raw.Payload, &m); err != nil {
			return err
		}
		msg = m
	default:
		return &ErrMessageFormat{Reason: fmt.Sprintf("未知的消息类型 %q", raw.Type)}
	}

	e.Message = msg
	return nil
}

func decodePayload(payload json.RawMessage, out interface{}) error {
	if len(payload) == 0 {
		return &ErrMessageFormat{Reason: "缺少消息负载"}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &ErrSerialization{Reason: "解析消息负载", Err: err}
	}
	return nil
}

// MarshalMessage 将消息编码为带类型标签的 JSON
func MarshalMessage(m Message) ([]byte, error) {
	return json.Marshal(MessageEnvelope{Message: m})
}

// UnmarshalMessage 解析带类型标签的 JSON 消息
func UnmarshalMessage(data []byte) (Message, error) {
	var env MessageEnvelope
	if err := env.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return env.Message, nil
}
