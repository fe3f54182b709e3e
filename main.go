package main

import "github.com/worklens/worklens/cmd"

func main() {
	cmd.Execute()
}
