package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// CheckConstraint reports whether engineVersion satisfies the semver constraint a strategy
// declares, such as "~1.2" or ">= 1.0, < 2".
//
// An empty constraint accepts every version. Development builds ("main") skip the check.
func CheckConstraint(engineVersion, constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version constraint %q", constraint)
	}

	engineVersion = strings.TrimPrefix(engineVersion, "v")
	if engineVersion == "main" {
		return nil
	}

	v, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version %q", engineVersion)
	}

	if !c.Check(v) {
		return errors.Newf(errors.ErrCodeVersionMismatch, "engine %s does not satisfy %q", v, constraint)
	}

	return nil
}
