//go:build !profile

package frame

// startProfile is a no-op unless the profile build tag is set; see
// profile_helper_profile.go.
func startProfile() func() {
	return func() {}
}
