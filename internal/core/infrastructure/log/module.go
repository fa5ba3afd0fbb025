// Package log 提供日志管理功能
package log

import (
	"fmt"

	logconfig "github.com/weisyn/govsign/internal/config/log"
	"github.com/weisyn/govsign/pkg/interfaces/config"
	logInterface "github.com/weisyn/govsign/pkg/interfaces/infrastructure/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ModuleParams 定义日志模块的依赖参数
type ModuleParams struct {
	fx.In

	Provider config.Provider // 配置提供者
}

// ModuleOutput 定义日志模块的输出结构
type ModuleOutput struct {
	fx.Out

	Logger    logInterface.Logger // 日志记录器接口
	ZapLogger *zap.Logger         // zap.Logger 具体类型（供需要 zap 特性的模块使用）
}

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供日志服务
// 根据配置初始化日志记录器并设置为全局记录器
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger, err := New(logconfig.NewFromProvider(params.Provider))
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("根据用户配置创建日志记录器失败: %w", err)
	}

	// 替换掉 init() 时用默认配置创建的日志器
	SetLogger(logger)

	concreteLogger, ok := logger.(*Logger)
	if !ok {
		return ModuleOutput{}, fmt.Errorf("logger 类型断言失败，无法获取 *zap.Logger")
	}

	return ModuleOutput{
		Logger:    logger,
		ZapLogger: concreteLogger.zapLogger,
	}, nil
}

// WithModule 为 logger 添加 module 字段
//
// 支持 logInterface.Logger 与 *zap.Logger，其他类型原样返回。
func WithModule(logger interface{}, module string) interface{} {
	switch l := logger.(type) {
	case logInterface.Logger:
		return l.With("module", module)
	case *zap.Logger:
		return l.With(zap.String("module", module))
	default:
		return logger
	}
}

// NewModuleLogger 创建带 module 字段的 logger
func NewModuleLogger(baseLogger logInterface.Logger, module string) logInterface.Logger {
	if baseLogger == nil {
		return nil
	}
	return baseLogger.With("module", module)
}

// NewAuditLogger 创建写入审计文件的 logger
func NewAuditLogger(baseLogger logInterface.Logger) logInterface.Logger {
	return NewModuleLogger(baseLogger, AuditModule)
}
