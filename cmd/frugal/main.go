// Frugal - cloud waste detection and remediation engine.
package main

import (
	// Provider adapters register themselves on import.
	_ "github.com/frugalops/frugal/providers/aws"
	_ "github.com/frugalops/frugal/providers/azure"
)

func main() {
	Execute()
}
