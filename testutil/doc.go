// Package testutil provides deterministic helpers shared by the
// integration and benchmark suites.
package testutil
