package main

import "github.com/ammiranda/position_service/internal/cli"

func main() {
	cli.Execute()
}
