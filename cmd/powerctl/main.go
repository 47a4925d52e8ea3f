package main

import "github.com/showard/powerd/cmd/powerctl/cmd"

func main() {
	cmd.Execute()
}
