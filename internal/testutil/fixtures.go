package testutil

import (
	"fmt"
	"io/ioutil"
	"path"
	"runtime"
	"testing"
)

// MustRelayFixture loads a relay response dump or panics.
func MustRelayFixture(absPath string) string {
	bytes, err := ioutil.ReadFile(absPath)
	if err != nil {
		panic(fmt.Sprintf("error loading fixture %s: %v", absPath, err))
	}

	return string(bytes)
}

// RelayFixture loads a relay response dump from the testdata/relay directory
// at the root of the module.
func RelayFixture(t *testing.T, name string) string {
	t.Helper()

	p := RelayFixturePath(t, name)

	bytes, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatalf("error loading fixture %s: %v", p, err)
	}

	return string(bytes)
}

// RelayFixturePath returns the absolute path of a relay fixture.
func RelayFixturePath(t *testing.T, name string) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("error loading caller")
	}

	return path.Join(path.Dir(filename), "../../", "testdata", "relay", name)
}
