package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/weisyn/govsign/internal/config/governance"
	"github.com/weisyn/govsign/internal/config/log"
	"github.com/weisyn/govsign/pkg/interfaces/config"
	"github.com/weisyn/govsign/pkg/types"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) config.Provider {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	return &Provider{
		appConfig: appConfig,
	}
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	return log.New(p.appConfig.Log).GetOptions()
}

// GetGovernance 获取治理签名配置
func (p *Provider) GetGovernance() *governance.GovernanceOptions {
	return governance.New(p.appConfig.Governance).GetOptions()
}

// GetAppConfig 获取原始应用配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}

// LoadFile 读取 JSON 配置文件
//
// 文件不存在时返回空配置（全部使用默认值）；文件存在但无法解析时返回错误。
func LoadFile(path string) (*types.AppConfig, error) {
	if path == "" {
		return &types.AppConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &types.AppConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, &types.ErrSerialization{Reason: fmt.Sprintf("解析配置文件 %s", path), Err: err}
	}
	return &appConfig, nil
}

// appOptions 静态应用配置
type appOptions struct {
	appConfig *types.AppConfig
}

// NewAppOptions 包装已加载的应用配置
func NewAppOptions(appConfig *types.AppConfig) config.AppOptions {
	return &appOptions{appConfig: appConfig}
}

// GetAppConfig 获取应用配置
func (o *appOptions) GetAppConfig() *types.AppConfig {
	return o.appConfig
}
