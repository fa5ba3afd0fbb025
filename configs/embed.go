package configs

import _ "embed"

// 嵌入默认配置与团队配置示例
//
//go:embed govsign.json
var defaultConfig []byte

//go:embed teams.example.json
var exampleTeams []byte

// GetDefaultConfig 获取默认配置文件内容
func GetDefaultConfig() []byte {
	return defaultConfig
}

// GetExampleTeams 获取团队配置示例
func GetExampleTeams() []byte {
	return exampleTeams
}
