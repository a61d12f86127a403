// Package templates provides embedded workforce template definitions.
package templates

import "embed"

// Workforce contains the builtin workforce templates. Each file defines an
// ordered step sequence with the unit role and declared risk classification
// per step.
//
//go:embed workforce/*.yaml
var Workforce embed.FS
