// Package version holds the build version, set at link time with
// -ldflags "-X github.com/JiscSD/cpdlc-channel-adapter/version.VERSION=...".
package version

import "fmt"

// VERSION of the build.
var VERSION = "dev"

// UserAgent identifies the adapter in relay requests.
func UserAgent() string {
	return fmt.Sprintf("cpdlc-channel-adapter/%s", VERSION)
}
