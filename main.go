package main

import "github.com/cosmos/lightcore/cmd"

func main() {
	cmd.Execute()
}
