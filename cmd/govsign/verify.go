package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/weisyn/govsign/internal/core/governance/bundle"
	"github.com/weisyn/govsign/internal/core/governance/multisig"
	"github.com/weisyn/govsign/internal/core/governance/nested"
	"github.com/weisyn/govsign/internal/core/governance/service"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/key"
	"github.com/weisyn/govsign/internal/core/infrastructure/metrics"
)

var (
	verifyBundles     []string
	verifyMetricsFile string

	verifyPubkeys   string
	verifyThreshold string

	verifyTeamsFile     string
	verifyTeamsRequired int
	verifyPerTeam       int
)

// errNotApproved 多签未通过，用于非零退出码
var errNotApproved = errors.New("多签验证未通过")

// verifyCmd 验证签名包
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "验证签名包",
	Long: `按扁平 N-of-M 或嵌套团队多签规则验证签名包。

可用 --bundle 多次指定签名包，多个签名包按配置的 batch_workers 并发验证。
任一签名包未通过时以非零状态退出。`,
}

var verifyFlatCmd = &cobra.Command{
	Use:   "flat",
	Short: "扁平 N-of-M 多签验证",
	RunE: func(cmd *cobra.Command, args []string) error {
		publicKeys, err := parsePublicKeys(verifyPubkeys)
		if err != nil {
			return err
		}
		bundles, err := readBundles(verifyBundles)
		if err != nil {
			return err
		}

		// 门限只来自命令行或配置，签名包中的声明仅作提示
		policy := verifyThreshold
		if policy == "" {
			policy = provider.GetGovernance().DefaultThreshold
		}

		jobs := make([]service.Job, len(bundles))
		for i, b := range bundles {
			if b.Threshold != "" && b.Threshold != policy {
				formatter.PrintWarning(fmt.Sprintf("%s: 忽略签名包声明的门限 %s，按 %s 验证", verifyBundles[i], b.Threshold, policy))
			}
			jobs[i] = service.Job{
				ID: verifyBundles[i],
				Flat: &service.FlatRequest{
					Threshold:  policy,
					PublicKeys: publicKeys,
					Message:    b.Message.Message,
					Signatures: b.SignatureList(),
				},
			}
		}
		return runVerify(cmd, jobs)
	},
}

var verifyNestedCmd = &cobra.Command{
	Use:   "nested",
	Short: "嵌套团队多签验证",
	RunE: func(cmd *cobra.Command, args []string) error {
		governance := provider.GetGovernance()

		teamsPath := verifyTeamsFile
		if teamsPath == "" {
			teamsPath = governance.TeamsFile
		}
		teamsFile, err := nested.LoadTeamsFile(teamsPath)
		if err != nil {
			return fmt.Errorf("加载团队配置 %s: %w", teamsPath, err)
		}

		// 优先级：命令行 > 配置文件 > 团队文件
		teamsRequired := verifyTeamsRequired
		if teamsRequired == 0 {
			teamsRequired = governance.TeamsRequired
		}
		perTeam := verifyPerTeam
		if perTeam == 0 {
			perTeam = governance.MaintainersPerTeamRequired
		}
		nm, err := teamsFile.Build(teamsRequired, perTeam)
		if err != nil {
			return fmt.Errorf("构建嵌套多签: %w", err)
		}

		bundles, err := readBundles(verifyBundles)
		if err != nil {
			return err
		}

		jobs := make([]service.Job, len(bundles))
		for i, b := range bundles {
			jobs[i] = service.Job{
				ID: verifyBundles[i],
				Nested: &service.NestedRequest{
					Multisig:   nm,
					Message:    b.Message.Message,
					Signatures: b.IdentitySignatures(),
				},
			}
		}
		return runVerify(cmd, jobs)
	},
}

func runVerify(cmd *cobra.Command, jobs []service.Job) error {
	svc, gatherer, stop, err := startService(cmd.Context())
	if err != nil {
		return err
	}
	defer stop()

	results, err := svc.VerifyBatch(cmd.Context(), jobs)
	if err != nil {
		return err
	}
	if err := metrics.WriteTextfile(gatherer, verifyMetricsFile); err != nil {
		return err
	}

	report := verifyReport{Results: results}
	for _, r := range results {
		if r.Err != nil {
			if len(results) == 1 {
				return r.Err
			}
			formatter.PrintWarning(fmt.Sprintf("%s: %v", r.ID, r.Err))
		}
	}

	if !report.AllApproved() {
		if err := formatter.Print(report); err != nil {
			return err
		}
		return errNotApproved
	}
	return formatter.FormatSuccess(report, "多签验证通过")
}

// verifyReport 验证结果输出
type verifyReport struct {
	Results []service.JobResult `json:"results"`
}

// AllApproved 全部签名包通过
func (r verifyReport) AllApproved() bool {
	for _, res := range r.Results {
		if !res.Approved() {
			return false
		}
	}
	return len(r.Results) > 0
}

func (r verifyReport) TableRows() [][]string {
	rows := [][]string{{"Bundle", "Approved", "Detail"}}
	for _, res := range r.Results {
		rows = append(rows, []string{res.ID, strconv.FormatBool(res.Approved()), resultDetail(res)})
		if res.Nested != nil {
			for _, team := range res.Nested.TeamDetails {
				rows = append(rows, []string{
					"  " + team.TeamID,
					strconv.FormatBool(team.Approved),
					fmt.Sprintf("%s: %d/%d", team.TeamName, team.MaintainersSigned, team.MaintainersRequired),
				})
			}
		}
	}
	return rows
}

func resultDetail(res service.JobResult) string {
	switch {
	case res.Err != nil:
		return res.Err.Error()
	case res.Flat != nil:
		return fmt.Sprintf("%d valid, threshold %s", len(res.Flat.ValidSigners),
			multisig.FormatThreshold(res.Flat.Threshold, res.Flat.Total))
	case res.Nested != nil:
		return fmt.Sprintf("teams %d/%d, maintainers %d/%d",
			res.Nested.TeamsApproved, res.Nested.TeamsRequired,
			res.Nested.MaintainersApproved, res.Nested.MaintainersRequired)
	default:
		return "-"
	}
}

func readBundles(paths []string) ([]*bundle.Bundle, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("必须至少指定一个 --bundle")
	}
	bundles := make([]*bundle.Bundle, 0, len(paths))
	for _, path := range paths {
		b, err := bundle.ReadBundle(path)
		if err != nil {
			return nil, fmt.Errorf("读取签名包 %s: %w", path, err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

func parsePublicKeys(list string) ([]key.PublicKey, error) {
	parts := multisig.ParseCommaSeparated(list)
	if len(parts) == 0 {
		return nil, fmt.Errorf("必须指定 --pubkeys")
	}
	keys := make([]key.PublicKey, 0, len(parts))
	for i, part := range parts {
		pk, err := key.PublicKeyFromHex(part)
		if err != nil {
			return nil, fmt.Errorf("第 %d 个公钥: %w", i, err)
		}
		keys = append(keys, pk)
	}
	return keys, nil
}

func init() {
	verifyCmd.PersistentFlags().StringSliceVar(&verifyBundles, "bundle", nil, "签名包文件（可重复）")
	verifyCmd.PersistentFlags().StringVar(&verifyMetricsFile, "metrics-file", "", "验证完成后写出 Prometheus textfile 指标")

	verifyFlatCmd.Flags().StringVar(&verifyPubkeys, "pubkeys", "", "逗号分隔的压缩公钥（十六进制）")
	verifyFlatCmd.Flags().StringVar(&verifyThreshold, "threshold", "", "门限，形如 3-of-5（默认取配置 default_threshold）")

	verifyNestedCmd.Flags().StringVar(&verifyTeamsFile, "teams", "", "团队配置文件（默认取配置 teams_file）")
	verifyNestedCmd.Flags().IntVar(&verifyTeamsRequired, "teams-required", 0, "需要批准的团队数（0 表示取配置或团队文件）")
	verifyNestedCmd.Flags().IntVar(&verifyPerTeam, "per-team", 0, "每个团队需要的维护者数（0 表示取配置或团队文件）")

	verifyCmd.AddCommand(verifyFlatCmd, verifyNestedCmd)
}
