package utils

import (
	"os"
	"path/filepath"

	"github.com/kardianos/osext"
	"github.com/pkg/errors"
)

// ExecDir 当前可执行程序目录
func ExecDir() string {
	dir, err := osext.ExecutableFolder()
	if err != nil {
		return ""
	}
	return dir
}

// 查找配置文件：先当前工作目录，再可执行程序目录；都不存在时返回可执行程序目录下的路径
func LookupFile(name string) string {
	if FileExists(name) {
		return name
	}
	return filepath.Join(ExecDir(), name)
}

// 默认配置文件 client.conf
func DefaultConfigFile() string {
	return LookupFile("client.conf")
}

func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

// 打开文件，追加写（目录和文件不存在时自动创建）
func OpenFile(fileName, dir string) (*os.File, error) {
	if _, err := os.Stat(dir); os.IsPermission(err) {
		return nil, errors.Wrapf(err, "permission denied dir: %s", dir)
	}
	if err := MakeDir(dir); err != nil {
		return nil, errors.Wrapf(err, "make dir %s", dir)
	}

	f, err := os.OpenFile(filepath.Join(dir, fileName), os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	return f, nil
}

func MakeDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}
