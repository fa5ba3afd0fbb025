package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/govsign/pkg/types"
)

// resetFlags 恢复所有命令的标志默认值，cobra 会在多次执行之间保留标志变量
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGovernanceWorkflow(t *testing.T) {
	dir := t.TempDir()
	signers := []string{"alice", "bob", "carol"}

	pubkeys := make([]string, len(signers))
	sigFiles := make([]string, len(signers))
	for i, signer := range signers {
		keyFile := filepath.Join(dir, signer+".key")
		out, err := run(t, "-o", "json", "keygen", "--out", keyFile)
		require.NoError(t, err)

		var generated struct {
			Data keyInfo `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &generated))
		pubkeys[i] = generated.Data.PublicKey

		info, err := os.Stat(keyFile)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		kp, err := loadKeypair(keyFile)
		require.NoError(t, err)
		assert.Equal(t, pubkeys[i], kp.PublicKey().String())

		sigFiles[i] = filepath.Join(dir, signer+".sig.json")
		_, err = run(t, "-o", "json", "sign", "release",
			"--version", "v1.0.0", "--commit", "abc123",
			"--key", keyFile, "--signer", signer, "--out", sigFiles[i])
		require.NoError(t, err)
	}

	// 已存在的密钥文件不会被覆盖
	_, err := run(t, "keygen", "--out", filepath.Join(dir, "alice.key"))
	require.Error(t, err)

	bundleFile := filepath.Join(dir, "bundle.json")
	out, err := run(t, append([]string{"-o", "json", "aggregate", "--threshold", "2-of-3", "--out", bundleFile}, sigFiles...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"threshold_met":true`)

	// 只有 alice 签名，收集者在签名包里声明 1-of-3
	singleFile := filepath.Join(dir, "single.json")
	out, err = run(t, "-o", "json", "aggregate", "--threshold", "1-of-3", "--out", singleFile, sigFiles[0])
	require.NoError(t, err)
	assert.Contains(t, out, `"threshold_met":true`)

	configFile := filepath.Join(dir, "govsign.json")
	require.NoError(t, os.WriteFile(configFile, []byte(`{
		"log": {"to_console": false},
		"governance": {"default_threshold": "2-of-3"}
	}`), 0644))
	pubkeyList := strings.Join(pubkeys, ",")

	out, err = run(t, "-o", "json", "verify", "flat",
		"--bundle", bundleFile,
		"--pubkeys", pubkeyList,
		"--threshold", "2-of-3")
	require.NoError(t, err)
	assert.Contains(t, out, `"success":true`)

	// 未指定 --threshold 时使用配置门限
	out, err = run(t, "-c", configFile, "-o", "json", "verify", "flat",
		"--bundle", bundleFile,
		"--pubkeys", pubkeyList)
	require.NoError(t, err)
	assert.Contains(t, out, `"threshold":2`)

	// 签名包声明的门限不参与验证
	_, err = run(t, "-c", configFile, "-o", "json", "verify", "flat",
		"--bundle", singleFile,
		"--pubkeys", pubkeyList)
	require.Error(t, err)
	assert.Equal(t, types.KindInsufficientSignatures, types.KindOf(err))

	// 命令行门限不足时同样拒绝
	_, err = run(t, "-c", configFile, "-o", "json", "verify", "flat",
		"--bundle", singleFile,
		"--pubkeys", pubkeyList,
		"--threshold", "3-of-3")
	assert.Equal(t, types.KindInsufficientSignatures, types.KindOf(err))

	teams := fmt.Sprintf(`{
		"teams_required": 2,
		"maintainers_per_team_required": 1,
		"teams": [
			{"id": "core", "name": "Core", "maintainers": [
				{"identity": "alice", "public_key": %q},
				{"identity": "bob", "public_key": %q}
			]},
			{"id": "infra", "name": "Infra", "maintainers": [
				{"identity": "carol", "public_key": %q}
			]}
		]
	}`, pubkeys[0], pubkeys[1], pubkeys[2])
	teamsFile := filepath.Join(dir, "teams.json")
	require.NoError(t, os.WriteFile(teamsFile, []byte(teams), 0644))

	metricsFile := filepath.Join(dir, "metrics", "govsign.prom")
	out, err = run(t, "-o", "json", "verify", "nested", "--bundle", bundleFile, "--teams", teamsFile, "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, out, `"inter_team_approved":true`)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `govsign_verify_verifications_total{kind="nested",result="approved"}`)

	// 只有 core 团队批准
	out, err = run(t, "-o", "json", "verify", "nested", "--bundle", singleFile, "--teams", teamsFile)
	assert.ErrorIs(t, err, errNotApproved)
	assert.Contains(t, out, `"inter_team_approved":false`)

	// infra 团队只有 1 人，无法满足每队 2 人
	_, err = run(t, "-o", "json", "verify", "nested", "--bundle", bundleFile, "--teams", teamsFile, "--per-team", "2")
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidMultisig, types.KindOf(err))
}

func TestHashCommand(t *testing.T) {
	file := filepath.Join(t.TempDir(), "artifact.tar.gz")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0644))

	out, err := run(t, "-o", "text", "hash", file)
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824  "+file+"\n", out)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := run(t, "-o", "yaml", "hash", "x")
	require.Error(t, err)
}
