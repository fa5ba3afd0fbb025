package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// 验证结果标签
const (
	resultApproved = "approved"
	resultRejected = "rejected"
	resultError    = "error"

	kindFlat   = "flat"
	kindNested = "nested"
)

// Metrics 验证服务指标
type Metrics struct {
	// verificationsTotal 验证次数（按类型和结果分类）
	verificationsTotal *prometheus.CounterVec

	// verificationDuration 单次验证耗时
	verificationDuration *prometheus.HistogramVec

	// validSignaturesTotal 通过验证的签名累计数
	validSignaturesTotal *prometheus.CounterVec
}

// NewMetrics 创建并注册验证服务指标
//
// reg 为 nil 时使用默认注册表；同名指标已注册时复用已有采集器。
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	verifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "verifications_total",
			Help:      "Total number of multisig verifications by kind and result",
		},
		[]string{"kind", "result"}, // flat|nested, approved|rejected|error
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "duration_seconds",
			Help:      "Duration of multisig verifications in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms ~ 0.8s
		},
		[]string{"kind"},
	)
	validSignatures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "valid_signatures_total",
			Help:      "Total number of signatures that verified against a known key",
		},
		[]string{"kind"},
	)

	var err error
	if verifications, err = registerOrReuse(reg, verifications); err != nil {
		return nil, err
	}
	if duration, err = registerOrReuse(reg, duration); err != nil {
		return nil, err
	}
	if validSignatures, err = registerOrReuse(reg, validSignatures); err != nil {
		return nil, err
	}

	return &Metrics{
		verificationsTotal:   verifications,
		verificationDuration: duration,
		validSignaturesTotal: validSignatures,
	}, nil
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(kind, result string, seconds float64, validSignatures int) {
	if m == nil {
		return
	}
	m.verificationsTotal.WithLabelValues(kind, result).Inc()
	m.verificationDuration.WithLabelValues(kind).Observe(seconds)
	if validSignatures > 0 {
		m.validSignaturesTotal.WithLabelValues(kind).Add(float64(validSignatures))
	}
}
