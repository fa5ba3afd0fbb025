package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/key"
)

var (
	keygenOut   string
	keygenForce bool
	pubkeyFile  string
)

// keyInfo 密钥输出
type keyInfo struct {
	PublicKey   string `json:"public_key"`
	Fingerprint string `json:"fingerprint"`
	KeyFile     string `json:"key_file,omitempty"`
}

func (k keyInfo) String() string {
	return k.PublicKey
}

func (k keyInfo) TableRows() [][]string {
	rows := [][]string{{"Field", "Value"}, {"public_key", k.PublicKey}, {"fingerprint", k.Fingerprint}}
	if k.KeyFile != "" {
		rows = append(rows, []string{"key_file", k.KeyFile})
	}
	return rows
}

func newKeyInfo(pk key.PublicKey, file string) keyInfo {
	return keyInfo{PublicKey: pk.String(), Fingerprint: pk.Fingerprint(), KeyFile: file}
}

// keygenCmd 生成新密钥
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "生成维护者密钥",
	Long: `生成新的 secp256k1 密钥对，私钥以十六进制写入 --out 指定的文件（权限 0600），
公钥输出到标准输出。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keygenOut == "" {
			return fmt.Errorf("必须指定 --out")
		}
		if _, err := os.Stat(keygenOut); err == nil && !keygenForce {
			return fmt.Errorf("密钥文件已存在: %s (使用 --force 覆盖)", keygenOut)
		}

		kp, err := key.NewKeyManager().GenerateWithContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("生成密钥: %w", err)
		}
		defer kp.Zero()

		secret := kp.SecretBytes()
		encoded := []byte(hex.EncodeToString(secret[:]) + "\n")
		key.SecureWipe(secret[:])
		defer key.SecureWipe(encoded)

		if err := os.WriteFile(keygenOut, encoded, 0600); err != nil {
			return fmt.Errorf("写入密钥文件: %w", err)
		}

		return formatter.FormatSuccess(newKeyInfo(kp.PublicKey(), keygenOut), "密钥已生成")
	},
}

// pubkeyCmd 从私钥文件导出公钥
var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "显示私钥文件对应的公钥",
	RunE: func(cmd *cobra.Command, args []string) error {
		kp, err := loadKeypair(pubkeyFile)
		if err != nil {
			return err
		}
		defer kp.Zero()
		return formatter.FormatSuccess(newKeyInfo(kp.PublicKey(), ""), "")
	},
}

// loadKeypair 读取十六进制私钥文件
func loadKeypair(path string) (*key.Keypair, error) {
	if path == "" {
		return nil, fmt.Errorf("必须指定 --key")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取密钥文件: %w", err)
	}
	defer key.SecureWipe(data)

	kp, err := key.NewKeyManager().FromSecretHex(string(data))
	if err != nil {
		return nil, fmt.Errorf("解析密钥文件 %s: %w", path, err)
	}
	return kp, nil
}

func init() {
	keygenCmd.Flags().StringVar(&keygenOut, "out", "", "私钥输出文件")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "覆盖已存在的密钥文件")

	pubkeyCmd.Flags().StringVar(&pubkeyFile, "key", "", "私钥文件")
}
