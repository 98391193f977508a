//go:build release

package worker

const Release = true
