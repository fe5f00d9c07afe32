package constants

import (
	"os"
)

// BuildVersion is the local build version, set by build system
const BuildVersion = "0.4.0"

var CurrentCommit string

// software version
func UserVersion() string {
	if os.Getenv("LENDCORE_VERSION_IGNORE_COMMIT") == "1" {
		return BuildVersion
	}

	return BuildVersion + CurrentCommit
}
