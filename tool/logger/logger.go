package logger

import (
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofish2020/easyclient/utils"
)

/*
purpose: 日志库
日志先写入chan缓冲，由一个后台协程输出到 标准输出 + 日志文件(可选)
*/

const (
	maxLogMessageNum = 1e5
	callerDepth      = 2

	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Yellow = "\033[33m"
)

// config for logger example: easyclient-2023-12-25.log
type Settings struct {
	Path       string `yaml:"path"`        // 路径
	Name       string `yaml:"name"`        // 文件名
	Ext        string `yaml:"ext"`         // 文件后缀
	DateFormat string `yaml:"date-format"` // 日期格式
}

func (s *Settings) fileName() string {
	return fmt.Sprintf("%s-%s.%s", s.Name, time.Now().Format(s.DateFormat), strings.TrimPrefix(s.Ext, "."))
}

// 日志级别
type LogLevel int32

const (
	NULL LogLevel = iota

	FATAL
	ERROR
	WARN
	INFO
	DEBUG
)

var levelFlags = []string{"", "Fatal", "Error", "Warn", "Info", "Debug"}

var levelColors = []string{"", Red, Red, Yellow, Green, Blue}

// 字符串 -> 日志级别
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	}
	return NULL, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error, fatal", level)
}

// 日志消息
type logMessage struct {
	level LogLevel
	msg   string
}

func (m *logMessage) reset() {
	m.level = NULL
	m.msg = ""
}

// 日志底层操作对象
type logger struct {
	settings   *Settings // nil: 只输出到标准输出
	logFile    *os.File
	logStd     *log.Logger
	logMsgChan chan *logMessage
	logMsgPool *sync.Pool
	logLevel   atomic.Int32
	close      chan struct{}
}

func (l *logger) Close() {
	close(l.close)
}

func (l *logger) writeLog(level LogLevel, callerDepth int, msg string) {
	var formattedMsg string
	_, file, line, ok := runtime.Caller(callerDepth)
	if ok {
		formattedMsg = fmt.Sprintf("[%s][%s:%d] %s", levelFlags[level], file, line, msg)
	} else {
		formattedMsg = fmt.Sprintf("[%s] %s", levelFlags[level], msg)
	}

	// 对象池，复用*logMessage对象
	logMsg := l.logMsgPool.Get().(*logMessage)
	logMsg.level = level
	logMsg.msg = formattedMsg
	l.logMsgChan <- logMsg
}

func (l *logger) enabled(level LogLevel) bool {
	return LogLevel(l.logLevel.Load()) >= level
}

// 后台输出协程
func (l *logger) run() {
	for {
		select {
		case <-l.close:
			if l.logFile != nil {
				l.logFile.Close()
			}
			return
		case logMsg := <-l.logMsgChan:
			l.output(logMsg)
			logMsg.reset()
			l.logMsgPool.Put(logMsg)
		}
	}
}

func (l *logger) output(logMsg *logMessage) {
	// 根据日志级别，增加不同的颜色
	l.logStd.Output(0, levelColors[logMsg.level]+logMsg.msg+Reset)

	if l.settings == nil {
		return
	}
	//检查是否跨天，重新生成日志文件
	logFilename := l.settings.fileName()
	if l.logFile == nil || path.Join(l.settings.Path, logFilename) != l.logFile.Name() {
		fd, err := utils.OpenFile(logFilename, l.settings.Path)
		if err != nil {
			l.logStd.Output(0, Red+"open log "+logFilename+" failed: "+err.Error()+Reset)
			return
		}
		if l.logFile != nil {
			l.logFile.Close()
		}
		l.logFile = fd
	}
	l.logFile.WriteString(time.Now().Format(utils.DateTimeFormat) + " " + logMsg.msg + utils.CRLF)
}

func newLogger(settings *Settings, logFile *os.File, level LogLevel) *logger {
	l := &logger{
		settings:   settings,
		logFile:    logFile,
		logStd:     log.New(os.Stdout, "", log.LstdFlags),
		logMsgChan: make(chan *logMessage, maxLogMessageNum),
		logMsgPool: &sync.Pool{
			New: func() any {
				return &logMessage{}
			},
		},
		close: make(chan struct{}),
	}
	l.logLevel.Store(int32(level))
	go l.run()
	return l
}

var defaultLogger = newLogger(nil, nil, DEBUG)

// 程序初始运行的时候调用：日志同时输出到文件
func Setup(settings *Settings) error {
	// 提前创建日志文件，尽早发现权限问题
	fd, err := utils.OpenFile(settings.fileName(), settings.Path)
	if err != nil {
		return fmt.Errorf("logger setup: %w", err)
	}
	fileLogger := newLogger(settings, fd, LogLevel(defaultLogger.logLevel.Load()))

	old := defaultLogger
	defaultLogger = fileLogger
	old.Close()
	return nil
}

// 设置日志级别
func SetLoggerLevel(logLevel LogLevel) {
	defaultLogger.logLevel.Store(int32(logLevel))
}

// ***********外部调用的日志函数***************
func Debug(v ...any) {
	if defaultLogger.enabled(DEBUG) {
		defaultLogger.writeLog(DEBUG, callerDepth, fmt.Sprint(v...))
	}
}

func Debugf(format string, v ...any) {
	if defaultLogger.enabled(DEBUG) {
		defaultLogger.writeLog(DEBUG, callerDepth, fmt.Sprintf(format, v...))
	}
}

func Info(v ...any) {
	if defaultLogger.enabled(INFO) {
		defaultLogger.writeLog(INFO, callerDepth, fmt.Sprint(v...))
	}
}

func Infof(format string, v ...any) {
	if defaultLogger.enabled(INFO) {
		defaultLogger.writeLog(INFO, callerDepth, fmt.Sprintf(format, v...))
	}
}

func Warn(v ...any) {
	if defaultLogger.enabled(WARN) {
		defaultLogger.writeLog(WARN, callerDepth, fmt.Sprint(v...))
	}
}

func Warnf(format string, v ...any) {
	if defaultLogger.enabled(WARN) {
		defaultLogger.writeLog(WARN, callerDepth, fmt.Sprintf(format, v...))
	}
}

func Error(v ...any) {
	if defaultLogger.enabled(ERROR) {
		defaultLogger.writeLog(ERROR, callerDepth, fmt.Sprint(v...))
	}
}

func Errorf(format string, v ...any) {
	if defaultLogger.enabled(ERROR) {
		defaultLogger.writeLog(ERROR, callerDepth, fmt.Sprintf(format, v...))
	}
}

func Fatal(v ...any) {
	if defaultLogger.enabled(FATAL) {
		defaultLogger.writeLog(FATAL, callerDepth, fmt.Sprint(v...))
	}
}

func Fatalf(format string, v ...any) {
	if defaultLogger.enabled(FATAL) {
		defaultLogger.writeLog(FATAL, callerDepth, fmt.Sprintf(format, v...))
	}
}
