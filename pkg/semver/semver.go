// Package semver checks resource versions against caller-supplied range pins.
package semver

import (
	"fmt"
	"regexp"
	"strconv"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:semver"

var majorOnlyRegex = regexp.MustCompile(`^\d+$`)

// IsMajorOnly reports whether rng is a bare major, e.g. "3".
func IsMajorOnly(rng string) bool {
	return majorOnlyRegex.MatchString(rng)
}

// ValidateVersion checks that version is valid SemVer. Empty is allowed (unversioned).
func ValidateVersion(version string) error {
	if version == "" {
		return nil
	}
	if _, err := masterminds.NewVersion(version); err != nil {
		return fmt.Errorf("%s - invalid version %q: %w", logPrefix, version, err)
	}
	return nil
}

// Satisfies reports whether version falls inside rng. rng may be a bare major ("2"), an
// exact version, or any Masterminds constraint ("^1.2", ">=1.0.0 <2.0.0"). An empty rng
// matches everything; an unversioned resource matches only an empty rng.
func Satisfies(version, rng string) (bool, error) {
	if rng == "" {
		return true, nil
	}
	if version == "" {
		return false, nil
	}

	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("%s - invalid version %q: %w", logPrefix, version, err)
	}

	if IsMajorOnly(rng) {
		major, err := strconv.ParseUint(rng, 10, 64)
		if err != nil {
			return false, fmt.Errorf("%s - invalid major %q: %w", logPrefix, rng, err)
		}
		return sv.Major() == major, nil
	}

	constraint, err := masterminds.NewConstraint(rng)
	if err != nil {
		return false, fmt.Errorf("%s - invalid range %q: %w", logPrefix, rng, err)
	}
	return constraint.Check(sv), nil
}
