package utils

import "fmt"

const (
	Yellow = "\033[33m"
	Reset  = "\033[0m"
)

const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"

	CRLF = "\r\n"
)

const logo = `
   ___  ____ ________  __  _______   ______  ________
  / _ \/ __ '/ ___/ / / / / ___/ /  /  _/ _ \/ ___/ /_
 /  __/ /_/ (__  ) /_/ / / /__/ /___/ //  __/ /  / __/
 \___/\__,_/____/\__, /  \___/_____/___/\___/_/   \__/
                /____/          %s
`

// Logo 命令行启动时打印
func Logo(version string) string {
	return Yellow + fmt.Sprintf(logo, version) + Reset
}
