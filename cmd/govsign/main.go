// govsign 治理签名命令行工具
//
// 维护者用它生成密钥、对治理决议签名、聚合签名并验证扁平或嵌套团队多签。
package main

func main() {
	Execute()
}
