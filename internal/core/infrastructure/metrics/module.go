// Package metrics 提供验证指标的注册表与导出
//
// 📋 **指标基础设施模块**
//
// 本模块提供：
//   - 独立的 prometheus.Registry，避免 CLI 进程内与默认注册表中的其他采集器混在一起
//   - Textfile 导出：一次性命令结束时把指标写入 node_exporter textfile collector 可读取的文件
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// ModuleOutput 定义指标模块的输出结构
type ModuleOutput struct {
	fx.Out

	Registry   *prometheus.Registry
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Module 返回 metrics 模块
//
// 提供：
//   - *prometheus.Registry 及其 Registerer / Gatherer 视图
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideRegistry),
	)
}

// ProvideRegistry 创建独立注册表
func ProvideRegistry() ModuleOutput {
	reg := prometheus.NewRegistry()
	return ModuleOutput{
		Registry:   reg,
		Registerer: reg,
		Gatherer:   reg,
	}
}

// WriteTextfile 将注册表中的指标以文本格式写入文件
//
// 目标目录不存在时自动创建；写入先落临时文件再重命名，采集方不会读到半个文件。
func WriteTextfile(gatherer prometheus.Gatherer, path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建指标目录失败: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("写入指标文件失败: %w", err)
	}
	return nil
}
