// Package version exposes the library version used in release tags and
// the default User-Agent the clients identify themselves with.
package version

// Version is the library version. Release tags follow v<Version>.
const Version = "0.1.0"

// UserAgent returns the default User-Agent header value.
func UserAgent() string {
	return "bonsai-libs/" + Version
}
