package main

import "github.com/hpcband/batchq/cmd"

func main() {
	cmd.Execute()
}
