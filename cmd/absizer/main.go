package main

import "abtest-sizer/internal/cli"

func main() {
	cli.Execute()
}
