package ir

import "fmt"

// IRVersion identifies the canonical encoding produced by Encode. It is
// stored with every run; bump it whenever a core node changes shape so
// replays of older runs report the difference instead of hash drift.
const IRVersion = "1"

// EngineVersion is the elabql release. Release builds set it with
//
//	-ldflags "-X github.com/roach88/elabql/internal/ir.EngineVersion=..."
var EngineVersion = "0.1.0-dev"

// VersionString is the version line shown by elabql --version.
func VersionString() string {
	return fmt.Sprintf("%s (core IR v%s)", EngineVersion, IRVersion)
}
