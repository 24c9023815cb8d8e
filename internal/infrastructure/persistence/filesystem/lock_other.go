//go:build !unix

package filesystem

// lockFile is a no-op where flock is unavailable; writes stay atomic but
// concurrent writers are not serialized.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
