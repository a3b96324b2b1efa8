package main

import "github.com/goliatone/go-formbind/cmd/formbind/cmd"

func main() {
	cmd.Execute()
}
