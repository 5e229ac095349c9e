package main

import "github.com/lepinkainen/naoka/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
