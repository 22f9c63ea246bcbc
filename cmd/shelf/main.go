// Command shelf manages an in-memory library catalogue backed by on-disk
// snapshots.
package main

import "github.com/mesh-intelligence/shelf/internal/cli"

func main() {
	cli.Execute()
}
