// Package output provides output formatting functionality for govsign commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/weisyn/govsign/pkg/types"
)

// Format 输出格式
type Format string

const (
	// FormatText 纯文本格式（默认）
	FormatText Format = "text"
	// FormatJSON 单行 JSON 格式
	FormatJSON Format = "json"
	// FormatPretty 美化JSON格式
	FormatPretty Format = "pretty"
	// FormatTable 表格格式
	FormatTable Format = "table"
)

// ParseFormat 解析输出格式名称（不区分大小写）
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatPretty, FormatTable:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("不支持的输出格式: %s", s)
	}
}

// TableRenderer 可按表格输出的数据
type TableRenderer interface {
	// TableRows 返回表格数据，第一行为表头
	TableRows() [][]string
}

// Formatter 输出格式化器
type Formatter struct {
	format    Format
	writer    io.Writer // 数据输出（JSON/表格等）
	logWriter io.Writer // 提示输出（Success/Error等）
	silent    bool
}

// NewFormatter 创建格式化器
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}

	return &Formatter{
		format:    format,
		writer:    writer,    // 数据输出到 stdout
		logWriter: os.Stderr, // 提示输出到 stderr（避免污染 JSON）
	}
}

// Format 返回当前输出格式
func (f *Formatter) Format() Format {
	return f.format
}

// IsJSON JSON 类输出模式
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON || f.format == FormatPretty
}

// SetLogWriter 设置提示输出目标（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 设置静默模式
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print 打印输出
func (f *Formatter) Print(data interface{}) error {
	if f.silent {
		return nil
	}

	switch f.format {
	case FormatJSON:
		return f.printJSON(data, false)
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	default:
		return f.printText(data)
	}
}

// printJSON 打印JSON格式
func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return &types.ErrSerialization{Reason: "编码输出", Err: err}
	}

	if _, err := fmt.Fprintln(f.writer, string(output)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printTable 打印表格格式
func (f *Formatter) printTable(data interface{}) error {
	var rows pterm.TableData

	switch v := data.(type) {
	case TableRenderer:
		rows = v.TableRows()
	case map[string]interface{}:
		rows = mapRows(v)
	case map[string]string:
		converted := make(map[string]interface{}, len(v))
		for k, val := range v {
			converted[k] = val
		}
		rows = mapRows(converted)
	case []map[string]interface{}:
		rows = mapSliceRows(v)
	default:
		// 降级到JSON
		return f.printJSON(data, true)
	}

	if len(rows) == 0 {
		return nil
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, rendered); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// mapRows 两列: Key | Value，按键排序
func mapRows(data map[string]interface{}) pterm.TableData {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := pterm.TableData{{"Key", "Value"}}
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(data[k])})
	}
	return rows
}

// mapSliceRows 每个 map 一行，列为所有键的并集
func mapSliceRows(data []map[string]interface{}) pterm.TableData {
	if len(data) == 0 {
		return nil
	}

	columns := extractColumns(data)
	rows := pterm.TableData{columns}
	for _, row := range data {
		values := make([]string, len(columns))
		for i, col := range columns {
			if val, ok := row[col]; ok {
				values[i] = formatValue(val)
			} else {
				values[i] = "-"
			}
		}
		rows = append(rows, values)
	}
	return rows
}

// printText 打印纯文本格式
func (f *Formatter) printText(data interface{}) error {
	var text string
	switch v := data.(type) {
	case string:
		text = v
	case fmt.Stringer:
		text = v.String()
	case TableRenderer:
		lines := make([]string, 0)
		rows := v.TableRows()
		for i := 1; i < len(rows); i++ {
			lines = append(lines, strings.Join(rows[i], "  "))
		}
		text = strings.Join(lines, "\n")
	default:
		text = fmt.Sprintf("%v", data)
	}

	if _, err := fmt.Fprintln(f.writer, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// FormatSuccess 输出成功结果
//
// JSON 模式输出 {"success":true,"data":...,"message":...}；其他模式输出数据后在 stderr 打印提示。
func (f *Formatter) FormatSuccess(data interface{}, message string) error {
	if f.IsJSON() {
		return f.Print(NewSuccessOutput(data, message))
	}
	if data != nil {
		if err := f.Print(data); err != nil {
			return err
		}
	}
	if message != "" {
		f.PrintSuccess(message)
	}
	return nil
}

// FormatError 输出错误
//
// JSON 模式将 {"error":{"code","message"}} 写入数据输出，code 为治理错误类别；其他模式在 stderr 打印错误。
func (f *Formatter) FormatError(err error) error {
	if err == nil {
		return nil
	}
	if f.IsJSON() {
		return f.printJSON(NewErrorOutput(types.KindOf(err).String(), err.Error(), nil), f.format == FormatPretty)
	}
	f.PrintError(err)
	return nil
}

// PrintSuccess 打印成功消息（输出到 stderr，避免污染 JSON）
func (f *Formatter) PrintSuccess(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprint(f.logWriter, pterm.Success.Sprintln(message))
}

// PrintError 打印错误消息（输出到 stderr，避免污染 JSON）
func (f *Formatter) PrintError(err error) {
	_, _ = fmt.Fprint(f.logWriter, pterm.Error.Sprintln(err.Error()))
}

// PrintWarning 打印警告消息（输出到 stderr，避免污染 JSON）
func (f *Formatter) PrintWarning(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprint(f.logWriter, pterm.Warning.Sprintln(message))
}

// PrintInfo 打印信息消息（输出到 stderr，避免污染 JSON）
func (f *Formatter) PrintInfo(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprint(f.logWriter, pterm.Info.Sprintln(message))
}

// ===== 辅助函数 =====

// formatValue 格式化值
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int, int64, uint, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%.2f", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case nil:
		return "-"
	default:
		// 尝试JSON序列化
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// extractColumns 提取所有列，按首次出现的顺序
func extractColumns(data []map[string]interface{}) []string {
	columnSet := make(map[string]bool)
	columns := make([]string, 0)

	for _, row := range data {
		keys := make([]string, 0, len(row))
		for key := range row {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !columnSet[key] {
				columnSet[key] = true
				columns = append(columns, key)
			}
		}
	}

	return columns
}

// ErrorOutput 错误输出结构
type ErrorOutput struct {
	Error struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// NewErrorOutput 创建错误输出
func NewErrorOutput(code string, message string, details interface{}) *ErrorOutput {
	output := &ErrorOutput{}
	output.Error.Code = code
	output.Error.Message = message
	output.Error.Details = details
	return output
}

// SuccessOutput 成功输出结构
type SuccessOutput struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// NewSuccessOutput 创建成功输出
func NewSuccessOutput(data interface{}, message string) *SuccessOutput {
	return &SuccessOutput{
		Success: true,
		Data:    data,
		Message: message,
	}
}
