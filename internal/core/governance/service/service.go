// Package service 提供治理签名验证服务
//
// 在纯密码学核心（multisig、nested）之上增加：
//   - 审计日志：每次验证的结论写入 module=audit 日志
//   - Prometheus 指标：验证次数、耗时、有效签名数
//   - 批量验证：多个独立验证任务按 batch_workers 并发执行
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	governanceconfig "github.com/weisyn/govsign/internal/config/governance"
	"github.com/weisyn/govsign/internal/core/governance/multisig"
	"github.com/weisyn/govsign/internal/core/governance/nested"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/key"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/signature"
	logimpl "github.com/weisyn/govsign/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/govsign/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/govsign/pkg/types"
)

// FlatRequest 扁平多签验证请求
type FlatRequest struct {
	// Threshold 形如 "3-of-5"，为空时使用配置的默认门限
	Threshold  string
	PublicKeys []key.PublicKey
	Message    types.Message
	Signatures []signature.Signature
}

// FlatResult 扁平多签验证结果
type FlatResult struct {
	Approved     bool  `json:"approved"`
	Threshold    int   `json:"threshold"`
	Total        int   `json:"total"`
	ValidSigners []int `json:"valid_signers"`
}

// NestedRequest 嵌套多签验证请求
type NestedRequest struct {
	Multisig   *nested.NestedMultisig
	Message    types.Message
	Signatures []nested.IdentitySignature
}

// Job 批量验证中的一个任务，Flat 与 Nested 二选一
type Job struct {
	ID     string
	Flat   *FlatRequest
	Nested *NestedRequest
}

// JobResult 批量验证任务结果
type JobResult struct {
	ID     string         `json:"id"`
	Flat   *FlatResult    `json:"flat,omitempty"`
	Nested *nested.Result `json:"nested,omitempty"`
	Err    error          `json:"-"`
}

// Approved 任务是否通过
func (r JobResult) Approved() bool {
	switch {
	case r.Err != nil:
		return false
	case r.Flat != nil:
		return r.Flat.Approved
	case r.Nested != nil:
		return r.Nested.InterTeamApproved
	default:
		return false
	}
}

// Service 治理签名验证服务
type Service struct {
	logger           logInterface.Logger
	audit            logInterface.Logger
	metrics          *Metrics
	defaultThreshold string
	workers          int
}

// New 创建验证服务
//
// logger 为 nil 时不输出日志；reg 为 nil 时使用 prometheus 默认注册表。
func New(options *governanceconfig.GovernanceOptions, logger logInterface.Logger, reg prometheus.Registerer) (*Service, error) {
	cfg := governanceconfig.FromOptions(options)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("治理配置无效: %w", err)
	}
	opts := cfg.GetOptions()

	metrics, err := NewMetrics(opts.MetricsNamespace, reg)
	if err != nil {
		return nil, fmt.Errorf("注册验证指标失败: %w", err)
	}

	if logger == nil {
		logger = logimpl.Nop()
	}

	return &Service{
		logger:           logimpl.NewModuleLogger(logger, "governance"),
		audit:            logimpl.NewAuditLogger(logger),
		metrics:          metrics,
		defaultThreshold: opts.DefaultThreshold,
		workers:          opts.BatchWorkers,
	}, nil
}

// Workers 批量验证并发数
func (s *Service) Workers() int {
	return s.workers
}

// VerifyFlat 验证扁平 N-of-M 多签
//
// 签名数量不足门限时返回 ErrInsufficientSignatures；有效签名不足时返回 Approved=false 且无错误。
func (s *Service) VerifyFlat(ctx context.Context, req *FlatRequest) (*FlatResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil || req.Message == nil {
		return nil, &types.ErrMessageFormat{Reason: "缺少待验证消息"}
	}

	start := time.Now()
	result, err := s.verifyFlat(req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		s.metrics.observe(kindFlat, resultError, elapsed, 0)
		s.logger.Warnf("扁平多签验证失败: %v", err)
		return nil, err
	}

	outcome := resultRejected
	if result.Approved {
		outcome = resultApproved
	}
	s.metrics.observe(kindFlat, outcome, elapsed, len(result.ValidSigners))
	s.audit.With(
		"kind", kindFlat,
		"message", req.Message.Description(),
		"threshold", multisig.FormatThreshold(result.Threshold, result.Total),
		"valid", len(result.ValidSigners),
		"approved", result.Approved,
	).Info("扁平多签验证完成")

	return result, nil
}

func (s *Service) verifyFlat(req *FlatRequest) (*FlatResult, error) {
	thresholdText := req.Threshold
	if thresholdText == "" {
		thresholdText = s.defaultThreshold
	}
	threshold, total, err := multisig.ParseThreshold(thresholdText)
	if err != nil {
		return nil, err
	}

	ms, err := multisig.New(threshold, total, req.PublicKeys)
	if err != nil {
		return nil, err
	}

	valid, approved, err := ms.Evaluate(req.Message.SigningBytes(), req.Signatures)
	if err != nil {
		return nil, err
	}
	return &FlatResult{
		Approved:     approved,
		Threshold:    threshold,
		Total:        total,
		ValidSigners: valid,
	}, nil
}

// VerifyNested 验证嵌套团队多签
func (s *Service) VerifyNested(ctx context.Context, req *NestedRequest) (*nested.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil || req.Multisig == nil {
		return nil, &types.ErrInvalidMultisig{Reason: "缺少团队配置"}
	}
	if req.Message == nil {
		return nil, &types.ErrMessageFormat{Reason: "缺少待验证消息"}
	}

	start := time.Now()
	result := req.Multisig.VerifyMessage(req.Message, req.Signatures)
	elapsed := time.Since(start).Seconds()

	outcome := resultRejected
	if result.InterTeamApproved {
		outcome = resultApproved
	}
	validSignatures := 0
	for _, team := range result.TeamDetails {
		validSignatures += team.MaintainersSigned
	}
	s.metrics.observe(kindNested, outcome, elapsed, validSignatures)

	s.audit.With(
		"kind", kindNested,
		"message", req.Message.Description(),
		"teams_approved", result.TeamsApproved,
		"teams_required", result.TeamsRequired,
		"missing_teams", result.MissingTeams(),
		"approved", result.InterTeamApproved,
	).Info("嵌套多签验证完成")

	return result, nil
}

// VerifyBatch 并发执行多个独立的验证任务
//
// 结果与 jobs 一一对应；单个任务的失败记录在 JobResult.Err 中，不影响其他任务。
// 只有 ctx 被取消时返回错误，此时尚未执行的任务 Err 为 ctx.Err()。
func (s *Service) VerifyBatch(ctx context.Context, jobs []Job) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, job := range jobs {
		results[i].ID = job.ID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			results[i] = s.runJob(gctx, job)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("批量验证被中断: %w", err)
	}
	s.logger.Infof("批量验证完成，共 %d 个任务", len(jobs))
	return results, nil
}

func (s *Service) runJob(ctx context.Context, job Job) JobResult {
	result := JobResult{ID: job.ID}
	switch {
	case job.Flat != nil && job.Nested != nil:
		result.Err = &types.ErrInvalidMultisig{Reason: fmt.Sprintf("任务 %s 同时包含扁平与嵌套请求", job.ID)}
	case job.Flat != nil:
		result.Flat, result.Err = s.VerifyFlat(ctx, job.Flat)
	case job.Nested != nil:
		result.Nested, result.Err = s.VerifyNested(ctx, job.Nested)
	default:
		result.Err = &types.ErrInvalidMultisig{Reason: fmt.Sprintf("任务 %s 缺少验证请求", job.ID)}
	}
	return result
}
