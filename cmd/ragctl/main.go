package main

import "github.com/upb/rag-service/internal/cli"

func main() {
	cli.Execute()
}
