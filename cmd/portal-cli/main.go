// portal-cli 是门户的命令行入口：启动 web 服务、迁移本地库，
// 以及在终端里浏览公开线索、导出 PDF、发布通告和校验审计链。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// 所有子命令错误都统一输出到 stderr 并返回非 0 状态码。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
