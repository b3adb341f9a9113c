package main

import "github.com/arnavshah/oncall-api-go/pkg/cli"

func main() {
	cli.Run()
}
