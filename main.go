package main

import "github.com/45deg/kantele/cmd"

func main() {
	cmd.Execute()
}
