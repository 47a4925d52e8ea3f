package main

import "github.com/showard/powerd/cmd/powerd/cmd"

func main() {
	cmd.Execute()
}
