package main

import "github.com/velaire/ecommerce/cmd"

func main() {
	cmd.Start()
}
