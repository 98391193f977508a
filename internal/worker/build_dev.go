//go:build !release

package worker

// Release is false for development builds; build with -tags release to
// launch the bundled backend instead of the source tree copy.
const Release = false
