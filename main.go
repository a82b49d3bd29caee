package main

import "comicdl/cmd"

func main() {
	cmd.Execute()
}
