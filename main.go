package main

import "phpswitcher/cmd"

func main() {
	cmd.Execute()
}
