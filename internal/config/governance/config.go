// Package governance 提供治理签名配置
package governance

import (
	"fmt"
	"strings"

	"github.com/weisyn/govsign/internal/core/governance/multisig"
	configtypes "github.com/weisyn/govsign/pkg/types"
)

// GovernanceOptions 治理签名配置选项
type GovernanceOptions struct {
	DefaultThreshold           string `json:"default_threshold"`
	TeamsFile                  string `json:"teams_file"`
	TeamsRequired              int    `json:"teams_required"`
	MaintainersPerTeamRequired int    `json:"maintainers_per_team_required"`
	BatchWorkers               int    `json:"batch_workers"`
	OutputFormat               string `json:"output_format"`
	MetricsNamespace           string `json:"metrics_namespace"`
}

// Config 治理签名配置实现
type Config struct {
	options *GovernanceOptions
}

// New 创建治理签名配置
func New(userConfig *configtypes.UserGovernanceConfig) *Config {
	options := createDefaultGovernanceOptions()
	if userConfig != nil {
		applyUserGovernanceConfig(options, userConfig)
	}
	return &Config{options: options}
}

// FromOptions 包装已有的配置选项
func FromOptions(options *GovernanceOptions) *Config {
	if options == nil {
		options = createDefaultGovernanceOptions()
	}
	return &Config{options: options}
}

func createDefaultGovernanceOptions() *GovernanceOptions {
	return &GovernanceOptions{
		DefaultThreshold:           defaultThreshold,
		TeamsFile:                  defaultTeamsFile,
		TeamsRequired:              defaultTeamsRequired,
		MaintainersPerTeamRequired: defaultMaintainersPerTeamRequired,
		BatchWorkers:               defaultBatchWorkers,
		OutputFormat:               defaultOutputFormat,
		MetricsNamespace:           defaultMetricsNamespace,
	}
}

func applyUserGovernanceConfig(options *GovernanceOptions, cfg *configtypes.UserGovernanceConfig) {
	if cfg.DefaultThreshold != nil {
		options.DefaultThreshold = strings.TrimSpace(*cfg.DefaultThreshold)
	}
	if cfg.TeamsFile != nil {
		options.TeamsFile = *cfg.TeamsFile
	}
	if cfg.TeamsRequired != nil {
		options.TeamsRequired = *cfg.TeamsRequired
	}
	if cfg.MaintainersPerTeamRequired != nil {
		options.MaintainersPerTeamRequired = *cfg.MaintainersPerTeamRequired
	}
	if cfg.BatchWorkers != nil {
		options.BatchWorkers = *cfg.BatchWorkers
	}
	if cfg.OutputFormat != nil {
		options.OutputFormat = strings.ToLower(strings.TrimSpace(*cfg.OutputFormat))
	}
	if cfg.MetricsNamespace != nil {
		options.MetricsNamespace = *cfg.MetricsNamespace
	}

	// 并发数越界时收敛到合法范围
	if options.BatchWorkers < 1 {
		options.BatchWorkers = 1
	}
	if options.BatchWorkers > maxBatchWorkers {
		options.BatchWorkers = maxBatchWorkers
	}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *GovernanceOptions {
	return c.options
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.options.DefaultThreshold != "" {
		if _, _, err := multisig.ParseThreshold(c.options.DefaultThreshold); err != nil {
			return fmt.Errorf("default_threshold 无效: %w", err)
		}
	}
	if c.options.TeamsRequired < 0 {
		return fmt.Errorf("teams_required 不能为负数: %d", c.options.TeamsRequired)
	}
	if c.options.MaintainersPerTeamRequired < 0 {
		return fmt.Errorf("maintainers_per_team_required 不能为负数: %d", c.options.MaintainersPerTeamRequired)
	}
	if c.options.BatchWorkers < 1 || c.options.BatchWorkers > maxBatchWorkers {
		return fmt.Errorf("batch_workers 超出范围 [1, %d]: %d", maxBatchWorkers, c.options.BatchWorkers)
	}
	if !supportedOutputFormats[c.options.OutputFormat] {
		return fmt.Errorf("不支持的输出格式: %s", c.options.OutputFormat)
	}
	return nil
}
