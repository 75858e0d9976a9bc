package main

import "github.com/kozaktomas/attendance-tracker/cmd"

func main() {
	cmd.Execute()
}
