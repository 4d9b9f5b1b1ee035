package main

import (
	"os"

	"github.com/David-Botos/olist-features/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
