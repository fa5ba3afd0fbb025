package config

import (
	"errors"
	"fmt"

	"github.com/weisyn/govsign/internal/config/governance"
	"github.com/weisyn/govsign/pkg/interfaces/config"
)

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置验证失败 [%s]: %s", e.Field, e.Message)
}

// Validate 验证配置提供者给出的完整配置
//
// 返回所有验证错误的合并结果，没有错误时返回 nil。
func Validate(provider config.Provider) error {
	var errs []error

	logOpts := provider.GetLog()
	if _, ok := logOpts.LevelMap[logOpts.Level]; !ok {
		errs = append(errs, &ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("未知的日志级别 %q", logOpts.Level),
		})
	}
	if logOpts.MaxSize <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "log.max_size",
			Message: "必须大于 0",
		})
	}

	govOpts := provider.GetGovernance()
	if err := governance.FromOptions(govOpts).Validate(); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "governance",
			Message: err.Error(),
		})
	}

	return errors.Join(errs...)
}
