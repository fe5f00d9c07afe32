package testflags

import (
	"flag"
	"testing"
)

// Unit tests run by default. Integration tests touch the disk (badger
// repos, journals) and can be switched off with -integration=false.
var integrationTest = flag.Bool("integration", true, "Run the integration go tests")
var unitTest = flag.Bool("unit", true, "Run the unit go tests")

// IntegrationTest runs the calling test in parallel iff `-integration` is set.
func IntegrationTest(t *testing.T) {
	if !*integrationTest {
		t.SkipNow()
	}
	t.Parallel()
}

// UnitTest runs the calling test in parallel iff `-unit` or `-short` is set.
func UnitTest(t *testing.T) {
	if !*unitTest && !testing.Short() {
		t.SkipNow()
	}
	t.Parallel()
}

// BadUnitTestWithSideEffects is UnitTest without t.Parallel, for tests that
// mutate package level state such as log levels.
func BadUnitTestWithSideEffects(t *testing.T) {
	if !*unitTest && !testing.Short() {
		t.SkipNow()
	}
}
