package main

import "github.com/example/omnidine/cmd"

func main() {
	cmd.Execute()
}
