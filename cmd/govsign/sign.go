package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/govsign/internal/core/governance/bundle"
	"github.com/weisyn/govsign/pkg/types"
)

var (
	signKeyFile string
	signSigner  string
	signOut     string

	signVersion string
	signCommit  string
	signModule  string
	signAmount  uint64
	signPurpose string
)

// signCmd 对治理消息签名
var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "对治理决议签名",
	Long: `对治理决议签名并生成签名文件。

签名文件包含签署者身份、公钥、签名和原始消息，可交给 aggregate 聚合。`,
}

var signReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "签名版本发布",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSign(types.Release{Version: signVersion, CommitHash: signCommit})
	},
}

var signModuleCmd = &cobra.Command{
	Use:   "module",
	Short: "签名模块批准",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSign(types.ModuleApproval{ModuleName: signModule, Version: signVersion})
	},
}

var signBudgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "签名预算决议",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSign(types.BudgetDecision{Amount: signAmount, Purpose: signPurpose})
	},
}

func runSign(msg types.Message) error {
	if signSigner == "" {
		return fmt.Errorf("必须指定 --signer")
	}

	kp, err := loadKeypair(signKeyFile)
	if err != nil {
		return err
	}
	defer kp.Zero()

	file, err := bundle.NewAggregator().Sign(kp, signSigner, msg)
	if err != nil {
		return fmt.Errorf("签名: %w", err)
	}

	if signOut != "" {
		if err := bundle.WriteJSON(signOut, file); err != nil {
			return err
		}
		return formatter.FormatSuccess(file, fmt.Sprintf("签名已写入 %s: %s", signOut, msg.Description()))
	}
	return formatter.FormatSuccess(file, "")
}

func init() {
	signCmd.PersistentFlags().StringVar(&signKeyFile, "key", "", "私钥文件")
	signCmd.PersistentFlags().StringVar(&signSigner, "signer", "", "签署者身份（嵌套多签中的维护者标识）")
	signCmd.PersistentFlags().StringVar(&signOut, "out", "", "签名文件输出路径（默认输出到标准输出）")

	signReleaseCmd.Flags().StringVar(&signVersion, "version", "", "版本号")
	signReleaseCmd.Flags().StringVar(&signCommit, "commit", "", "提交哈希")
	_ = signReleaseCmd.MarkFlagRequired("version")
	_ = signReleaseCmd.MarkFlagRequired("commit")

	signModuleCmd.Flags().StringVar(&signModule, "name", "", "模块名称")
	signModuleCmd.Flags().StringVar(&signVersion, "version", "", "模块版本")
	_ = signModuleCmd.MarkFlagRequired("name")
	_ = signModuleCmd.MarkFlagRequired("version")

	signBudgetCmd.Flags().Uint64Var(&signAmount, "amount", 0, "金额（satoshi）")
	signBudgetCmd.Flags().StringVar(&signPurpose, "purpose", "", "用途")
	_ = signBudgetCmd.MarkFlagRequired("amount")
	_ = signBudgetCmd.MarkFlagRequired("purpose")

	signCmd.AddCommand(signReleaseCmd, signModuleCmd, signBudgetCmd)
}
