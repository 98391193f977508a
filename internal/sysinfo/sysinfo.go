// Package sysinfo describes the host platform to the UI layer.
package sysinfo

import "runtime"

// Descriptor is a read-only snapshot of OS and CPU architecture identity.
// The three flags are derived from OS and at most one of them is set.
type Descriptor struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	IsMacOS   bool   `json:"is_macos"`
	IsWindows bool   `json:"is_windows"`
	IsLinux   bool   `json:"is_linux"`
}

// Get describes the running host.
func Get() Descriptor { return For(runtime.GOOS, runtime.GOARCH) }

// For builds a descriptor for the given platform identifiers.
func For(goos, goarch string) Descriptor {
	return Descriptor{
		OS:        goos,
		Arch:      goarch,
		IsMacOS:   goos == "darwin",
		IsWindows: goos == "windows",
		IsLinux:   goos == "linux",
	}
}

// Supported reports whether exactly one platform flag is set.
func (d Descriptor) Supported() bool { return d.IsMacOS || d.IsWindows || d.IsLinux }
