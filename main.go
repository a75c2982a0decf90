package main

import "github.com/khanhnv2901/apiprobe/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
