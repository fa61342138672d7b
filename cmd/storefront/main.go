package main

import "storefront/internal/cli"

func main() {
	cli.Execute()
}
