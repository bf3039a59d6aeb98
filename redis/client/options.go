package client

import (
	"time"

	"github.com/gofish2020/easyclient/tool/conf"
)

// 连接参数
type Options struct {
	Addr       string
	Password   string
	Database   int
	ClientName string

	// 同步调用的等待时间（<=0 一直等待）
	Timeout     time.Duration
	DialTimeout time.Duration

	AutoReconnect     bool
	ReconnectAttempts int

	PoolMaxIdle   int
	PoolMaxActive int
}

func DefaultOptions() Options {
	return OptionsFromConfig(conf.Default())
}

func OptionsFromConfig(cfg *conf.ClientConfig) Options {
	return Options{
		Addr:              cfg.Addr,
		Password:          cfg.RequirePass,
		Database:          cfg.Database,
		ClientName:        cfg.ClientName,
		Timeout:           time.Duration(cfg.Timeout) * time.Millisecond,
		DialTimeout:       time.Duration(cfg.DialTimeout) * time.Millisecond,
		AutoReconnect:     cfg.AutoReconnect,
		ReconnectAttempts: cfg.ReconnectAttempts,
		PoolMaxIdle:       cfg.PoolMaxIdle,
		PoolMaxActive:     cfg.PoolMaxActive,
	}
}

// 建立连接（含握手）的最长时间
func (o Options) connectTimeout() time.Duration {
	d := o.DialTimeout + o.Timeout
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}
