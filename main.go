package main

import "github.com/khanhnv2901/vulnscan/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
