package conf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
)

/*
purpose:读取客户端conf配置文件，格式：每行 key value，# 开头为注释

	addr 127.0.0.1:6379
	requirepass 123456
	timeout 3000
	autoreconnect yes
*/

const (
	defaultAddr              = "127.0.0.1:6379"
	defaultTimeoutMillis     = 3000
	defaultDialTimeoutMillis = 1000
	defaultReconnectAttempts = 3
	defaultPoolMaxIdle       = 8
	defaultPoolMaxActive     = 16
)

type ClientConfig struct {
	// 连接
	Addr        string `conf:"addr"`
	RequirePass string `conf:"requirepass,omitempty"`
	Database    int    `conf:"database"`
	ClientName  string `conf:"clientname"`

	// 超时（毫秒）
	Timeout     int `conf:"timeout"`
	DialTimeout int `conf:"dialtimeout"`

	// 断线重连
	AutoReconnect     bool `conf:"autoreconnect"`
	ReconnectAttempts int  `conf:"reconnectattempts"`

	// 连接池
	PoolMaxIdle   int `conf:"poolmaxidle"`
	PoolMaxActive int `conf:"poolmaxactive"`

	// 日志
	LogDir   string `conf:"logdir"`
	LogLevel string `conf:"loglevel"`
}

// 默认配置
func Default() *ClientConfig {
	return &ClientConfig{
		Addr:              defaultAddr,
		Timeout:           defaultTimeoutMillis,
		DialTimeout:       defaultDialTimeoutMillis,
		AutoReconnect:     true,
		ReconnectAttempts: defaultReconnectAttempts,
		PoolMaxIdle:       defaultPoolMaxIdle,
		PoolMaxActive:     defaultPoolMaxActive,
		LogLevel:          "info",
	}
}

// 全局配置
var GlobalConfig = Default()

// 加载配置文件，更新 GlobalConfig 对象
func LoadConfig(configFile string) error {
	file, err := os.Open(configFile)
	if err != nil {
		return fmt.Errorf("open config %s: %w", configFile, err)
	}
	defer file.Close()

	config, err := Parse(file)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", configFile, err)
	}
	GlobalConfig = config
	return nil
}

// 解析配置：文件中未出现的key保持默认值
func Parse(r io.Reader) (*ClientConfig, error) {

	newConfig := Default()

	//1.按行扫描文件
	lineMap := make(map[string]string)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// 空行 or 注释行
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		// 解析行  例如: addr 127.0.0.1:6379
		idx := strings.IndexAny(line, " \t")
		if idx > 0 && idx < len(line)-1 {
			key := line[:idx]
			value := strings.TrimSpace(line[idx+1:])
			lineMap[strings.ToLower(key)] = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	//2.将扫描结果保存到newConfig 对象中
	configValue := reflect.ValueOf(newConfig).Elem()
	configType := configValue.Type()

	// 遍历结构体字段（类型）
	for i := 0; i < configType.NumField(); i++ {

		fieldType := configType.Field(i)
		// 读取字段名
		fieldName := strings.TrimSpace(fieldType.Tag.Get("conf"))
		if fieldName == "" {
			fieldName = fieldType.Name
		} else {
			fieldName = strings.Split(fieldName, ",")[0]
		}
		fieldName = strings.ToLower(fieldName)

		fieldValue, ok := lineMap[fieldName]
		if !ok {
			continue
		}

		switch fieldType.Type.Kind() {
		case reflect.String:
			configValue.Field(i).SetString(fieldValue)
		case reflect.Bool:
			configValue.Field(i).SetBool(fieldValue == "yes")
		case reflect.Int:
			intValue, err := strconv.ParseInt(fieldValue, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid integer %q", fieldName, fieldValue)
			}
			configValue.Field(i).SetInt(intValue)
		}
	}
	return newConfig, nil
}
