package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/hash"
)

// artifactHash 制品哈希输出
type artifactHash struct {
	File   string `json:"file"`
	SHA256 string `json:"sha256"`
}

func (a artifactHash) String() string {
	return fmt.Sprintf("%s  %s", a.SHA256, a.File)
}

func (a artifactHash) TableRows() [][]string {
	return [][]string{{"File", "SHA-256"}, {a.File, a.SHA256}}
}

// hashCmd 计算发布制品的 SHA-256
var hashCmd = &cobra.Command{
	Use:   "hash <file>...",
	Short: "计算发布制品的 SHA-256",
	Long:  "计算发布制品的 SHA-256，可用作 sign release 的 --commit 之外的制品校验值。",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := hash.NewHashService()
		for _, path := range args {
			digest, err := svc.HashFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := formatter.Print(artifactHash{File: path, SHA256: hex.EncodeToString(digest[:])}); err != nil {
				return err
			}
		}
		return nil
	},
}
