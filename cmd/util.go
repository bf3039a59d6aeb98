package cmd

import (
	"fmt"
	"strings"

	"github.com/gofish2020/easyclient/redis/client"
	"github.com/gofish2020/easyclient/redis/command"
	"github.com/gofish2020/easyclient/tool/conf"
	"github.com/gofish2020/easyclient/tool/logger"
	"github.com/gofish2020/easyclient/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// 读取 .env 文件 & 环境变量（前缀 EASYCLIENT_）
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("easyclient")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// 配置优先级：命令行参数 > 环境变量 > 配置文件 > 默认值
func loadClientConfig() (*conf.ClientConfig, error) {
	file := viper.GetString("conf")
	if file == "" {
		file = utils.DefaultConfigFile()
	}

	cfg := conf.Default()
	if utils.FileExists(file) {
		if err := conf.LoadConfig(file); err != nil {
			return nil, err
		}
		cfg = conf.GlobalConfig
	} else if viper.IsSet("conf") {
		return nil, fmt.Errorf("config file %s not found", file)
	}

	if viper.IsSet("addr") {
		cfg.Addr = viper.GetString("addr")
	}
	if viper.IsSet("password") {
		cfg.RequirePass = viper.GetString("password")
	}
	if viper.IsSet("db") {
		cfg.Database = viper.GetInt("db")
	}
	if viper.IsSet("timeout") {
		cfg.Timeout = int(viper.GetDuration("timeout").Milliseconds())
	}
	if viper.IsSet("log-level") {
		cfg.LogLevel = viper.GetString("log-level")
	}
	conf.GlobalConfig = cfg
	return cfg, nil
}

func setupLogger(cfg *conf.ClientConfig) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if cfg.LogDir != "" {
		if err := logger.Setup(&logger.Settings{
			Path:       cfg.LogDir,
			Name:       "easyclient",
			Ext:        "log",
			DateFormat: utils.DateFormat,
		}); err != nil {
			return err
		}
	}
	logger.SetLoggerLevel(level)
	return nil
}

// 子命令执行前：绑定参数，加载配置，初始化日志
func setupClient(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg, err := loadClientConfig()
	if err != nil {
		return err
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}
	opts = client.OptionsFromConfig(cfg)
	return nil
}

// 一行命令 -> 原始命令（结果按回复类型解码）
func rawCommand(fields []string) (*command.Command[any], error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	typ := command.CommandType(strings.ToUpper(fields[0]))
	return command.New[any](typ, command.NewRawOutput(), command.NewArgs().Add(fields[1:]...)), nil
}

// 按 redis-cli 的格式输出
func formatValue(v any) string {
	return formatIndent(v, "")
}

func formatIndent(v any, indent string) string {
	switch val := v.(type) {
	case nil:
		return "(nil)"
	case command.RedisError:
		return "(error) " + string(val)
	case int64:
		return fmt.Sprintf("(integer) %d", val)
	case string:
		return fmt.Sprintf("%q", val)
	case []any:
		if len(val) == 0 {
			return "(empty array)"
		}
		var sb strings.Builder
		width := len(fmt.Sprint(len(val)))
		for i, item := range val {
			if i > 0 {
				sb.WriteString("\n" + indent)
			}
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			sb.WriteString(prefix)
			sb.WriteString(formatIndent(item, indent+strings.Repeat(" ", len(prefix))))
		}
		return sb.String()
	default:
		return fmt.Sprint(val)
	}
}
