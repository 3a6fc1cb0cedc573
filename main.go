// dec-go - Emerging keyword detection with Dynamic Eigenvector Centrality.
//
// dec-go reads a stream of document intervals, maintains a decaying keyword
// co-occurrence graph and ranks the keywords whose centrality is rising.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/dec-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
