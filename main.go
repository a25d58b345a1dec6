package main

import "github.com/readstack/readstack/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
