// Package update compares CLI versions.
package update

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-version"
)

// Status is the result of comparing the running version with another one.
type Status struct {
	Current *version.Version
	Latest  *version.Version
}

// Outdated reports whether Latest is newer than Current.
func (s Status) Outdated() bool {
	return s.Current.LessThan(s.Latest)
}

// Check parses both versions and compares them.
func Check(currentVersion, latestVersion string) (Status, error) {
	current, err := version.NewVersion(currentVersion)
	if err != nil {
		return Status{}, fmt.Errorf("invalid version format: %w", err)
	}
	latest, err := version.NewVersion(latestVersion)
	if err != nil {
		return Status{}, fmt.Errorf("invalid latest version format: %w", err)
	}
	return Status{Current: current, Latest: latest}, nil
}

// Satisfies reports whether currentVersion meets a constraint such as ">= 0.1, < 1.0".
func Satisfies(currentVersion, constraint string) (bool, error) {
	current, err := version.NewVersion(currentVersion)
	if err != nil {
		return false, fmt.Errorf("invalid version format: %w", err)
	}
	c, err := version.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint: %w", err)
	}
	return c.Check(current), nil
}

// GetDownloadURL returns the download URL for the current platform
func GetDownloadURL(v string) string {
	return fmt.Sprintf("https://github.com/satishbabariya/prisma-docdb/releases/download/v%s/prisma-docdb-%s-%s", v, runtime.GOOS, runtime.GOARCH)
}
