package main

import "github.com/emberlab/gasvault/cmd"

func main() {
	cmd.Execute()
}
