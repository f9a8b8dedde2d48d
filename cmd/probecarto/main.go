// Command probecarto edits, inspects and stores electrode blueprints.
package main

import "github.com/hupe1980/probecarto/internal/cli"

func main() {
	cli.Execute()
}
