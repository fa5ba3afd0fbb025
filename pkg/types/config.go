// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
type AppConfig struct {
	// 应用程序基本信息
	AppName *string `json:"app_name,omitempty"` // 应用名称
	Version *string `json:"version,omitempty"`  // 应用版本

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty"`

	// 治理签名配置 - 对应配置文件中的 governance 字段
	Governance *UserGovernanceConfig `json:"governance,omitempty"`
}

// UserLogConfig 用户日志配置
// 只包含JSON配置文件中实际出现的字段
type UserLogConfig struct {
	Level      *string `json:"level,omitempty"`       // 日志级别：debug, info, warn, error, fatal
	FilePath   *string `json:"file_path,omitempty"`   // 日志文件路径
	AuditFile  *string `json:"audit_file,omitempty"`  // 验证审计日志文件名（与 file_path 同目录）
	ToConsole  *bool   `json:"to_console,omitempty"`  // 是否输出到控制台（stderr）
	MaxSize    *int    `json:"max_size,omitempty"`    // 单个日志文件最大大小(MB)
	MaxBackups *int    `json:"max_backups,omitempty"` // 最大备份文件数
	MaxAge     *int    `json:"max_age,omitempty"`     // 日志文件最大保留天数
	Compress   *bool   `json:"compress,omitempty"`    // 是否压缩历史日志
}

// UserGovernanceConfig 用户治理签名配置
// 只包含JSON配置文件中实际出现的字段
type UserGovernanceConfig struct {
	// DefaultThreshold 扁平多签默认门限，格式 "N-of-M"
	DefaultThreshold *string `json:"default_threshold,omitempty"`

	// TeamsFile 嵌套多签团队配置文件路径
	TeamsFile *string `json:"teams_file,omitempty"`

	// TeamsRequired 需要批准的团队数
	TeamsRequired *int `json:"teams_required,omitempty"`

	// MaintainersPerTeamRequired 每个团队需要的有效签名数
	MaintainersPerTeamRequired *int `json:"maintainers_per_team_required,omitempty"`

	// BatchWorkers 批量验证的并发数
	BatchWorkers *int `json:"batch_workers,omitempty"`

	// OutputFormat CLI 输出格式：text | json | pretty | table
	OutputFormat *string `json:"output_format,omitempty"`

	// MetricsNamespace Prometheus 指标命名空间
	MetricsNamespace *string `json:"metrics_namespace,omitempty"`
}
