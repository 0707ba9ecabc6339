package main

import (
	"github.com/tugboatqa/tugboat-mcp/internal/cli"
)

func main() {
	cli.Execute()
}
