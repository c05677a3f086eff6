// Package main 启动 filerelay
package main

import (
	"os"

	"github.com/yeisme/filerelay/pkg/cmd"
)

//	@title			filerelay admin API
//	@version		1.0
//	@description	filerelay 的管理接口：文件索引查询、日志镜像导入、统计、消息模板与定时任务.
//	@BasePath		/api/v1

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@securityDefinitions.apikey	AdminToken
//	@in							header
//	@name						X-Admin-Token

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
