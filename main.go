package main

import "github.com/gofish2020/easyclient/cmd"

func main() {
	cmd.Execute()
}
