package main

import "github.com/eidosai/eidos/cmd"

func main() {
	cmd.Execute()
}
