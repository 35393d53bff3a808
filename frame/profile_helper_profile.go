//go:build profile

package frame

import "github.com/pkg/profile"

// startProfile is enabled by building/testing with -tags=profile; it
// wraps the benchmark run with a CPU profile written to the working
// directory, for diagnosing codec hot paths.
func startProfile() func() {
	return profile.Start(profile.CPUProfile, profile.NoShutdownHook).Stop
}
