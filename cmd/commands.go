package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofish2020/easyclient/redis/client"
	"github.com/gofish2020/easyclient/redis/command"
	"github.com/spf13/cobra"
)

var (
	pingCmd = &cobra.Command{
		Use:               "ping",
		Short:             "Send PING to the server",
		Args:              cobra.NoArgs,
		PersistentPreRunE: setupClient,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(func(c *client.RedisClient) error {
				redis, err := c.ConnectSync(cmd.Context())
				if err != nil {
					return err
				}
				pong, err := redis.Ping()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pong)
				return nil
			})
		},
	}

	execCmd = &cobra.Command{
		Use:               "exec <command> [args...]",
		Short:             "Execute a raw command and print the reply",
		Example:           "  easyclient exec SET key value\n  easyclient exec HGETALL hash",
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setupClient,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.RedisClient) error {
				conn, err := c.Connect(cmd.Context())
				if err != nil {
					return err
				}
				value, err := execRaw(conn, args)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatValue(value))
				return nil
			})
		},
	}

	multiCmd = &cobra.Command{
		Use:               "multi <command line>...",
		Short:             "Execute command lines in one transaction (MULTI/EXEC)",
		Example:           `  easyclient multi "SET a 1" "INCR a" "GET a"`,
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setupClient,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.RedisClient) error {
				conn, err := c.Connect(cmd.Context())
				if err != nil {
					return err
				}
				results, err := execMulti(conn, args)
				if err != nil {
					return err
				}
				if results == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "(transaction aborted)")
					return nil
				}
				for i, line := range args {
					fmt.Fprintf(cmd.OutOrStdout(), "%d) %s\n   %s\n", i+1, line, formatValue(results[i]))
				}
				return nil
			})
		},
	}
)

func withClient(fn func(c *client.RedisClient) error) error {
	c := client.NewRedisClient(opts)
	defer c.Shutdown()
	return fn(c)
}

// 发送一个原始命令，等待结果（服务端错误作为结果返回）
func execRaw(conn *client.RedisConnection, args []string) (any, error) {
	cmd, err := rawCommand(args)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Dispatch(cmd); err != nil {
		return nil, err
	}
	return waitRaw(cmd, conn.Options())
}

func waitRaw(cmd *command.Command[any], opts client.Options) (any, error) {
	value, err := wait(cmd, opts.Timeout)
	if err != nil {
		return nil, err
	}
	if rerr, ok := cmd.Error().(command.RedisError); ok {
		return rerr, nil
	}
	return value, nil
}

// timeout <= 0 时一直等待
func wait[T any](cmd *command.Command[T], timeout time.Duration) (T, error) {
	if timeout > 0 {
		return cmd.GetWithTimeout(timeout)
	}
	return cmd.Get()
}

// 事务执行：返回每一行命令的结果；事务被放弃时返回 nil
func execMulti(conn *client.RedisConnection, lines []string) ([]any, error) {
	cmds := make([]*command.Command[any], 0, len(lines))
	for _, line := range lines {
		cmd, err := rawCommand(strings.Fields(line))
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}

	multi, err := conn.Multi()
	if err != nil {
		return nil, err
	}
	for _, cmd := range cmds {
		if _, err := conn.Dispatch(cmd); err != nil {
			return nil, err
		}
	}
	exec, err := conn.Exec()
	if err != nil {
		return nil, err
	}

	timeout := conn.Options().Timeout
	if _, err := wait(multi, timeout); err != nil {
		return nil, err
	}
	if err := multi.Error(); err != nil {
		return nil, err
	}
	if _, err := wait(exec, timeout); err != nil {
		return nil, err
	}
	if err := exec.Error(); err != nil {
		return nil, err
	}
	if output, ok := exec.Output().(*command.NestedMultiOutput); ok && output.Aborted() {
		return nil, nil
	}

	results := make([]any, 0, len(cmds))
	for _, cmd := range cmds {
		value, err := waitRaw(cmd, conn.Options())
		if err != nil {
			return nil, err
		}
		results = append(results, value)
	}
	return results, nil
}
