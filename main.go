package main

import "github.com/lovance/backend/cmd"

func main() {
	cmd.Run()
}
