package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	governanceconfig "github.com/weisyn/govsign/internal/config/governance"
	logInterface "github.com/weisyn/govsign/pkg/interfaces/infrastructure/log"
)

// ModuleParams 定义验证服务模块的依赖参数
type ModuleParams struct {
	fx.In

	Options    *governanceconfig.GovernanceOptions
	Logger     logInterface.Logger   `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Module 返回验证服务模块
func Module() fx.Option {
	return fx.Module("governance",
		fx.Provide(ProvideService),
	)
}

// ProvideService 提供验证服务
func ProvideService(params ModuleParams) (*Service, error) {
	return New(params.Options, params.Logger, params.Registerer)
}
