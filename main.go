package main

import "imagecluster/cmd"

func main() {
	cmd.Execute()
}
