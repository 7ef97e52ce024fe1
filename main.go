package main

import "nathanbeddoewebdev/devsweep/cmd"

func main() {
	cmd.Execute()
}
