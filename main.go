package main

import (
	"fmt"
	"os"

	"mlindgren/bankfiles/cmd/pain001"
	"mlindgren/bankfiles/cmd/parse"
	"mlindgren/bankfiles/cmd/root"
)

func init() {
	root.Init()
	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(pain001.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
