package main

import "time"

// GlobalFlags holds persistent flags shared by every command
type GlobalFlags struct {
	ConfigPath string
}

// RunFlags Flag structs to decouple cobra from logic for testing.
type RunFlags struct {
	ConfigPath string
	Listen     string
	Script     string
	LogLevel   string
}

// APIFlags configure commands that talk to a running host
type APIFlags struct {
	ConfigPath string
	APIUrl     string
	APITimeout time.Duration
}
