package main

import "github.com/shreeve/rip-sub000/cmd"

var version = "v0.1.0"

func main() {
	cmd.Execute(version)
}
