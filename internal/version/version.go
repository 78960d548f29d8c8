package version

// Version is the engine version reported by the CLI and checked against a
// config's engine_version. Release builds set it with
//
//	-ldflags "-X github.com/rxtech-lab/argo-signal/internal/version.Version=1.2.3"
//
// "main" marks a development build.
var Version = "main"

// Commit is the source revision, set the same way.
var Commit = ""

func GetVersion() string {
	return Version
}

// String is the one-line form printed by the version command.
func String() string {
	if Commit == "" {
		return Version
	}

	return Version + " (" + Commit + ")"
}
