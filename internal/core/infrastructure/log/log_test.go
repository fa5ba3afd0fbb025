package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logconfig "github.com/weisyn/govsign/internal/config/log"
)

func TestToZapFields(t *testing.T) {
	fields := toZapFields("module", "governance", "count", 3, "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "module", fields[0].Key)
	assert.Equal(t, "governance", fields[0].String)
	assert.Equal(t, "count", fields[1].Key)

	fields = toZapFields(42, "answer")
	require.Len(t, fields, 1)
	assert.Equal(t, "42", fields[0].Key)
}

func TestConsoleOutputLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := logconfig.New(&logconfig.LogOptions{
		Level:     WarnLevel,
		ToConsole: true,
		MaxSize:   1,
	})

	logger, err := newWithConsole(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info("被过滤的信息")
	logger.Warn("阈值未达成")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "被过滤的信息")
	assert.Contains(t, out, "阈值未达成")
}

func TestModuleRoutingCore(t *testing.T) {
	auditCore, auditLogs := observer.New(zapcore.DebugLevel)
	mainCore, mainLogs := observer.New(zapcore.DebugLevel)

	core := &moduleRoutingCore{auditCore: auditCore, mainCore: mainCore}
	logger := zap.New(core)

	logger.Info("普通日志")
	logger.Info("字段携带审计", zap.String("module", AuditModule))
	logger.With(zap.String("module", AuditModule)).Info("With 携带审计")
	logger.With(zap.String("module", "governance")).Info("治理模块日志")

	assert.Equal(t, 2, auditLogs.Len())
	assert.Equal(t, 2, mainLogs.Len())
	assert.Equal(t, "字段携带审计", auditLogs.All()[0].Message)
	assert.Equal(t, "With 携带审计", auditLogs.All()[1].Message)
	assert.Equal(t, "治理模块日志", mainLogs.All()[1].Message)
}

func TestFileAndAuditRouting(t *testing.T) {
	dir := t.TempDir()
	cfg := logconfig.New(&logconfig.LogOptions{
		Level:      InfoLevel,
		FilePath:   filepath.Join(dir, "govsign.log"),
		AuditFile:  "audit.log",
		ToConsole:  false,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info("加载团队配置")
	NewAuditLogger(logger).Info("嵌套多签验证通过")
	require.NoError(t, logger.Sync())

	mainContent, err := os.ReadFile(filepath.Join(dir, "govsign.log"))
	require.NoError(t, err)
	auditContent, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)

	assert.Contains(t, string(mainContent), "加载团队配置")
	assert.NotContains(t, string(mainContent), "嵌套多签验证通过")
	assert.Contains(t, string(auditContent), "嵌套多签验证通过")
	assert.True(t, strings.Contains(string(auditContent), `"module":"audit"`))
}

func TestGlobalLogger(t *testing.T) {
	old := GetLogger()
	defer SetLogger(old)

	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(FromZap(zap.New(core)))

	Info("全局信息")
	Debugf("被过滤 %d", 1)
	With("module", "cli").Warn("带字段")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "全局信息", logs.All()[0].Message)
	assert.Equal(t, "cli", logs.All()[1].ContextMap()["module"])

	// nil 不会覆盖当前记录器
	SetLogger(nil)
	assert.NotNil(t, GetLogger())
}

func TestWithModule(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := FromZap(zap.New(core))

	l, ok := WithModule(base, "bundle").(interface{ Info(string) })
	require.True(t, ok)
	l.Info("聚合完成")

	z, ok := WithModule(zap.New(core), "cli").(*zap.Logger)
	require.True(t, ok)
	z.Info("命令执行")

	assert.Equal(t, "plain", WithModule("plain", "x"))
	assert.Nil(t, NewModuleLogger(nil, "x"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "bundle", logs.All()[0].ContextMap()["module"])
	assert.Equal(t, "cli", logs.All()[1].ContextMap()["module"])
}
