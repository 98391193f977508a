package client

import "time"

// SystemInfo describes the host platform of a running deskvisor.
type SystemInfo struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	IsMacOS   bool   `json:"is_macos"`
	IsWindows bool   `json:"is_windows"`
	IsLinux   bool   `json:"is_linux"`
}

// WorkerStats is a best-effort resource snapshot of the backend worker.
type WorkerStats struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}

// Status represents the supervisor snapshot served at {base}/status.
type Status struct {
	State     string       `json:"state"`
	Name      string       `json:"name"`
	PID       int          `json:"pid,omitempty"`
	RunID     string       `json:"run_id,omitempty"`
	Command   string       `json:"command"`
	Args      []string     `json:"args"`
	WorkDir   string       `json:"work_dir,omitempty"`
	StartedAt time.Time    `json:"started_at,omitempty"`
	StoppedAt time.Time    `json:"stopped_at,omitempty"`
	Exited    bool         `json:"exited"`
	ExitError string       `json:"exit_error,omitempty"`
	SpawnErr  string       `json:"spawn_error,omitempty"`
	Stats     *WorkerStats `json:"stats,omitempty"`
}

// WindowEventRequest is the body of {base}/window/event.
type WindowEventRequest struct {
	Event string `json:"event"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
