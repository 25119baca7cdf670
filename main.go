package main

import "truebite-api/cmd"

func main() {
	cmd.Execute()
}
