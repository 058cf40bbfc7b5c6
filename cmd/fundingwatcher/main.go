package main

import (
	"funding-rate-alerts/internal/cli"
)

func main() {
	cli.Execute()
}
