package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/govsign/internal/core/governance/bundle"
)

var (
	aggregateThreshold string
	aggregateOut       string
)

// aggregateCmd 聚合签名文件
var aggregateCmd = &cobra.Command{
	Use:   "aggregate <signature-file>...",
	Short: "聚合多个签名文件",
	Long: `将多个维护者的签名文件聚合为一个签名包。

所有签名文件必须签署同一条消息；指定 --threshold 时报告有效签署者是否达到门限。
签名包中记录的门限仅供参考，verify 按命令行或配置的门限验证。`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := make([]*bundle.SignatureFile, 0, len(args))
		for _, path := range args {
			f, err := bundle.ReadSignatureFile(path)
			if err != nil {
				return err
			}
			files = append(files, f)
		}

		result, err := bundle.NewAggregator().Aggregate(files, aggregateThreshold)
		if err != nil {
			return fmt.Errorf("聚合签名: %w", err)
		}

		if aggregateOut != "" {
			if err := bundle.WriteJSON(aggregateOut, result.Bundle); err != nil {
				return err
			}
		}

		message := fmt.Sprintf("已聚合 %d 个签名，有效签署者 %d 个", result.Bundle.SignatureCount, result.ValidSigners)
		if aggregateThreshold != "" && !result.ThresholdMet {
			formatter.PrintWarning(fmt.Sprintf("有效签署者未达到门限 %s", aggregateThreshold))
		}
		return formatter.FormatSuccess(result, message)
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateThreshold, "threshold", "", "门限，形如 3-of-5（可选）")
	aggregateCmd.Flags().StringVar(&aggregateOut, "out", "", "签名包输出路径")
}
