package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// CheckCompatibility reports whether a config written for configVersion can
// run on engineVersion.
//
// Major and minor must match; patch may differ. Either side being "main"
// (a development build) or empty on the config side skips the check.
//
//   - engine 1.2.1, config 1.2.0: ok
//   - engine 1.3.0, config 1.2.0: minor mismatch
//   - engine 2.0.0, config 1.2.0: major mismatch
func CheckCompatibility(engineVersion, configVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if engineVersion == "main" || configVersion == "main" || configVersion == "" {
		return nil
	}

	engine, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	wanted, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine_version '%s'", configVersion)
	}

	if engine.Major() != wanted.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"major version mismatch: engine is %d.x.x but config requires %d.x.x",
			engine.Major(), wanted.Major())
	}

	if engine.Minor() != wanted.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"minor version mismatch: engine is %d.%d.x but config requires %d.%d.x",
			engine.Major(), engine.Minor(), wanted.Major(), wanted.Minor())
	}

	return nil
}

// CheckConfig checks configVersion against the running engine.
func CheckConfig(configVersion string) error {
	return CheckCompatibility(Version, configVersion)
}
