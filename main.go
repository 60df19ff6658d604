// 命令行入口：子命令见 internal/cli（capture / import / list）。
package main

import (
	"fmt"
	"os"

	"go-app-ranking/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
