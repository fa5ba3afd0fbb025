package governance

// 治理签名配置默认值
const (
	// defaultThreshold 扁平多签默认门限
	defaultThreshold = "3-of-5"

	// defaultTeamsFile 默认团队配置文件
	defaultTeamsFile = "teams.json"

	// defaultTeamsRequired 0 表示使用团队文件中声明的值
	defaultTeamsRequired = 0

	// defaultMaintainersPerTeamRequired 0 表示使用团队文件中声明的值
	defaultMaintainersPerTeamRequired = 0

	// defaultBatchWorkers 批量验证并发数
	defaultBatchWorkers = 4

	// maxBatchWorkers 批量验证并发上限
	maxBatchWorkers = 64

	// defaultOutputFormat 默认输出格式
	defaultOutputFormat = "text"

	// defaultMetricsNamespace 默认指标命名空间
	defaultMetricsNamespace = "govsign"
)

// 支持的输出格式
var supportedOutputFormats = map[string]bool{
	"text":   true,
	"json":   true,
	"pretty": true,
	"table":  true,
}
