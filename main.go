package main

import "github.com/nmoreno/poolarb/cmd"

func main() {
	cmd.Execute()
}
