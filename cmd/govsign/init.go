package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weisyn/govsign/configs"
)

var (
	initDir   string
	initForce bool
)

// initCmd 写出默认配置与团队配置示例
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "生成默认配置和团队配置示例",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(initDir, 0755); err != nil {
			return fmt.Errorf("创建目录: %w", err)
		}

		files := []struct {
			name string
			data []byte
		}{
			{"govsign.json", configs.GetDefaultConfig()},
			{"teams.json", configs.GetExampleTeams()},
		}
		written := make([]string, 0, len(files))
		for _, f := range files {
			path := filepath.Join(initDir, f.name)
			if _, err := os.Stat(path); err == nil && !initForce {
				formatter.PrintWarning(fmt.Sprintf("已存在，跳过: %s", path))
				continue
			}
			if err := os.WriteFile(path, f.data, 0644); err != nil {
				return fmt.Errorf("写入 %s: %w", path, err)
			}
			written = append(written, path)
		}
		return formatter.FormatSuccess(written, fmt.Sprintf("已生成 %d 个文件", len(written)))
	},
}

func init() {
	initCmd.Flags().StringVar(&initDir, "dir", ".", "输出目录")
	initCmd.Flags().BoolVar(&initForce, "force", false, "覆盖已存在的文件")
	rootCmd.AddCommand(initCmd)
}
