package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/loykin/deskvisor/internal/app"
	"github.com/loykin/deskvisor/internal/config"
	"github.com/loykin/deskvisor/internal/health"
	"github.com/loykin/deskvisor/internal/logger"
	"github.com/loykin/deskvisor/internal/supervisor"
	"github.com/loykin/deskvisor/internal/sysinfo"
	"github.com/loykin/deskvisor/pkg/client"
)

type command struct {
	out io.Writer
	// prober replaces the fixed health probe; tests only
	prober health.Detector
	// appOpts are appended to app.Setup options; tests only
	appOpts []app.Option
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Run hosts the worker until the window closes or a signal arrives
func (c *command) Run(ctx context.Context, f RunFlags) error {
	cfg, err := loadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	if f.Listen != "" {
		cfg.Server.Listen = f.Listen
	}
	if f.Script != "" {
		cfg.Worker.Script = f.Script
	}
	if f.LogLevel != "" {
		lvl, err := logger.ParseLevel(f.LogLevel)
		if err != nil {
			return err
		}
		cfg.Log.Slog.Level = lvl
	}
	a, err := app.Setup(cfg, c.appOpts...)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// Health probes the worker endpoint once and prints true or false
func (c *command) Health(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	sup := supervisor.New(supervisor.Config{
		Prober: c.prober,
		Logger: cfg.Log.NewSlogger(),
	})
	_, err = fmt.Fprintln(c.out, sup.CheckHealth(ctx))
	return err
}

// SysInfo prints the host platform descriptor as JSON
func (c *command) SysInfo() error {
	return printJSON(c.out, sysinfo.Get())
}

// Invoke runs a named command on a running host and prints its JSON result
func (c *command) Invoke(ctx context.Context, f APIFlags, name string) error {
	cl, err := c.apiClient(f)
	if err != nil {
		return err
	}
	var result json.RawMessage
	if err := cl.Invoke(ctx, name, &result); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, strings.TrimSpace(string(result)))
	return err
}

// Status prints the supervisor snapshot of a running host
func (c *command) Status(ctx context.Context, f APIFlags) error {
	cl, err := c.apiClient(f)
	if err != nil {
		return err
	}
	st, err := cl.Status(ctx)
	if err != nil {
		return err
	}
	return printJSON(c.out, st)
}

// Close asks a running host to handle a window close request
func (c *command) Close(ctx context.Context, f APIFlags) error {
	cl, err := c.apiClient(f)
	if err != nil {
		return err
	}
	if err := cl.SendWindowEvent(ctx, "close_requested"); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, "close requested")
	return err
}

func (c *command) apiClient(f APIFlags) (*client.Client, error) {
	url := f.APIUrl
	if url == "" {
		cfg, err := loadConfig(f.ConfigPath)
		if err != nil {
			return nil, err
		}
		url = "http://" + cfg.Server.Listen + cfg.Server.BasePath
	}
	return client.New(client.Config{
		BaseURL: strings.TrimRight(url, "/"),
		Timeout: f.APITimeout,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
