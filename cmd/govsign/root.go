package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"golang.org/x/term"

	"github.com/weisyn/govsign/client/core/output"
	configpkg "github.com/weisyn/govsign/internal/config"
	"github.com/weisyn/govsign/internal/core/governance/service"
	logimpl "github.com/weisyn/govsign/internal/core/infrastructure/log"
	"github.com/weisyn/govsign/internal/core/infrastructure/metrics"
	configiface "github.com/weisyn/govsign/pkg/interfaces/config"
	"github.com/weisyn/govsign/pkg/types"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigFile   string // 配置文件路径
	OutputFormat string // 输出格式
	Silent       bool   // 静默模式
}

var (
	globalFlags GlobalFlags
	appConfig   *types.AppConfig
	provider    configiface.Provider
	formatter   *output.Formatter
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "govsign",
	Short: "治理签名工具",
	Long: `govsign - 基于 secp256k1 的治理多签工具

维护者对治理决议（版本发布、模块批准、预算决议）签名，
签名文件聚合后可按扁平 N-of-M 或嵌套团队多签规则验证。

典型流程:
  govsign keygen --out alice.key
  govsign sign release --version v1.0.0 --commit abc123 --key alice.key --signer alice --out alice.sig.json
  govsign aggregate alice.sig.json bob.sig.json carol.sig.json --threshold 3-of-5 --out bundle.json
  govsign verify nested --bundle bundle.json --teams teams.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appConfig, err = configpkg.LoadFile(globalFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("加载配置: %w", err)
		}
		provider = configpkg.NewProvider(appConfig)
		if err := configpkg.Validate(provider); err != nil {
			return fmt.Errorf("配置无效: %w", err)
		}

		// 命令行未指定时使用配置文件中的输出格式
		formatName := globalFlags.OutputFormat
		if formatName == "" {
			formatName = provider.GetGovernance().OutputFormat
		}
		format, err := output.ParseFormat(formatName)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, cmd.OutOrStdout())
		formatter.SetLogWriter(cmd.ErrOrStderr())
		formatter.SetSilent(globalFlags.Silent)

		// stderr 被重定向（CI 日志、文件）时不输出颜色控制符
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			pterm.DisableStyling()
		}
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if formatter != nil {
			_ = formatter.FormatError(err)
		} else {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		}
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "配置文件路径 (JSON，不存在时使用默认配置)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "", "输出格式: text|json|pretty|table (默认读取配置)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Silent, "silent", false, "静默模式 (仅输出错误)")

	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(pubkeyCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(hashCmd)
}

// startService 通过 fx 装配配置、日志与验证服务
//
// 返回的 stop 函数负责停止应用并刷新日志。
func startService(ctx context.Context) (*service.Service, prometheus.Gatherer, func(), error) {
	var (
		svc      *service.Service
		gatherer prometheus.Gatherer
	)
	app := fx.New(
		fx.NopLogger,
		fx.Provide(func() configiface.AppOptions { return configpkg.NewAppOptions(appConfig) }),
		configpkg.Module(),
		logimpl.Module(),
		metrics.Module(),
		service.Module(),
		fx.Populate(&svc, &gatherer),
	)
	if err := app.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("装配验证服务: %w", err)
	}
	if err := app.Start(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("启动验证服务: %w", err)
	}

	stop := func() {
		_ = app.Stop(context.Background())
		_ = logimpl.GetLogger().Sync()
	}
	return svc, gatherer, stop, nil
}
