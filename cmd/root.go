package cmd

import (
	"fmt"
	"os"

	"github.com/gofish2020/easyclient/redis/client"
	"github.com/gofish2020/easyclient/utils"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (
	// 当前命令使用的连接配置（setupClient 中初始化）
	opts = client.DefaultOptions()

	RootCmd = &cobra.Command{
		Use:   "easyclient",
		Short: "redis client",
		Long: utils.Logo(Version) + `
easyclient 是一个异步的 redis 客户端：
命令按顺序写入连接，回复按顺序匹配；支持连接池、事务和断线重连`,
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of easyclient",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "easyclient v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(pingCmd)
	RootCmd.AddCommand(execCmd)
	RootCmd.AddCommand(multiCmd)
	RootCmd.AddCommand(benchCmd)

	flags := RootCmd.PersistentFlags()
	flags.String("conf", "", "config file (default <exec dir>/client.conf)")
	flags.String("addr", "127.0.0.1:6379", "server address")
	flags.String("password", "", "password for AUTH")
	flags.Int("db", 0, "database number")
	flags.Duration("timeout", 0, "command timeout, e.g. 3s")
	flags.String("log-level", "", "log level (debug, info, warn, error, fatal)")
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
