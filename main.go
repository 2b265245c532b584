package main

import "github.com/KaramelBytes/tabscope/cmd"

func main() {
	cmd.Execute()
}
