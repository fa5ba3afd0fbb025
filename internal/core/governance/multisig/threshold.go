package multisig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weisyn/govsign/pkg/types"
)

const thresholdSeparator = "-of-"

// ParseThreshold 解析 "N-of-M" 格式的门限字符串
//
// 格式错误返回 ErrMessageFormat；N 为 0 或 N > M 返回 ErrInvalidThreshold。
func ParseThreshold(s string) (threshold, total int, err error) {
	parts := strings.Split(strings.TrimSpace(s), thresholdSeparator)
	if len(parts) != 2 {
		return 0, 0, &types.ErrMessageFormat{Reason: fmt.Sprintf("门限格式应为 N-of-M，实际 %q", s)}
	}

	threshold, err = strconv.Atoi(parts[0])
	if err != nil || threshold < 0 {
		return 0, 0, &types.ErrMessageFormat{Reason: fmt.Sprintf("无效的门限数字 %q", parts[0])}
	}
	total, err = strconv.Atoi(parts[1])
	if err != nil || total < 0 {
		return 0, 0, &types.ErrMessageFormat{Reason: fmt.Sprintf("无效的总数 %q", parts[1])}
	}

	if threshold == 0 || threshold > total {
		return 0, 0, &types.ErrInvalidThreshold{Threshold: threshold, Total: total}
	}
	return threshold, total, nil
}

// FormatThreshold 格式化为 "N-of-M"
func FormatThreshold(threshold, total int) string {
	return strconv.Itoa(threshold) + thresholdSeparator + strconv.Itoa(total)
}

// ParseCommaSeparated 拆分逗号分隔列表，去除空白和空项
func ParseCommaSeparated(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
