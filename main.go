package main

import "github.com/muskater/libelektra/cmd"

func main() {
	cmd.Execute()
}
