package main

import "unisync/cmd"

func main() {
	cmd.Execute()
}
