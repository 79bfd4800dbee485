// =============================================================================
// Budget Builder - Main Entry Point
// =============================================================================
//
// USAGE:
//   budget build      - Build the XML report from a budget export
//   budget validate   - Check an export without writing files
//   budget version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : The build pipeline, one package per stage
//   - pkg/       : Shared file handling utilities
//
// =============================================================================

package main

import (
	"github.com/vaihtoehtobudjetti/budget-builder/cmd"
)

func main() {
	cmd.Execute()
}
