// Package config provides configuration provider interfaces.
package config

import (
	governanceconfig "github.com/weisyn/govsign/internal/config/governance"
	logconfig "github.com/weisyn/govsign/internal/config/log"
	"github.com/weisyn/govsign/pkg/types"
)

// Provider 配置提供者接口
type Provider interface {
	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetGovernance 获取治理签名配置
	GetGovernance() *governanceconfig.GovernanceOptions

	// GetAppConfig 获取原始应用配置
	GetAppConfig() *types.AppConfig
}
