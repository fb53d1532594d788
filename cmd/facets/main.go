// Command facets stores people and attaches Driver and Membership facets to
// them from the command line.
package main

import "github.com/mesh-intelligence/facets/internal/cli"

func main() {
	cli.Execute()
}
