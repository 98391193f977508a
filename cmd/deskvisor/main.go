package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot(&command{out: os.Stdout})
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and its subcommands
func buildRoot(c *command) *cobra.Command {
	globalFlags := &GlobalFlags{}
	root := createRootCommand(globalFlags)
	root.AddCommand(
		createRunCommand(c, globalFlags),
		createHealthCommand(c, globalFlags),
		createSysInfoCommand(c),
		createInvokeCommand(c, globalFlags),
		createStatusCommand(c, globalFlags),
		createCloseCommand(c, globalFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "deskvisor",
		Short: "Desktop shell host that supervises a backend worker",
		Long: `Deskvisor launches the Python backend of a desktop app, exposes the
UI command surface over a loopback HTTP server and stops the backend when
the window closes.

Examples:
  deskvisor run --config=deskvisor.toml
  deskvisor health
  deskvisor invoke get_system_info
  deskvisor close`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	return root
}

func createRunCommand(c *command, g *GlobalFlags) *cobra.Command {
	f := &RunFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the backend worker and serve UI commands until close",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Run(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Listen, "listen", "", "command server address (overrides server.listen)")
	cmd.Flags().StringVar(&f.Script, "script", "", "worker script path (overrides the build default)")
	cmd.Flags().StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

func createHealthCommand(c *command, g *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the backend health endpoint once and print true or false",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Health(cmd.Context(), g.ConfigPath)
		},
	}
}

func createSysInfoCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "sysinfo",
		Short: "Print the host platform descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.SysInfo()
		},
	}
}

func addAPIFlags(cmd *cobra.Command, f *APIFlags) {
	cmd.Flags().StringVar(&f.APIUrl, "api-url", "", "host API URL (e.g. http://127.0.0.1:1430/api); defaults to the configured server")
	cmd.Flags().DurationVar(&f.APITimeout, "api-timeout", 10*time.Second, "request timeout")
}

func createInvokeCommand(c *command, g *GlobalFlags) *cobra.Command {
	f := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "invoke <command>",
		Short: "Invoke a UI command on a running host",
		Long: `Invoke a registered command on a running host and print its JSON result.

Examples:
  deskvisor invoke check_backend_health
  deskvisor invoke get_system_info --api-url=http://127.0.0.1:1430/api`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Invoke(cmd.Context(), *f, args[0])
		},
	}
	addAPIFlags(cmd, f)
	return cmd
}

func createStatusCommand(c *command, g *GlobalFlags) *cobra.Command {
	f := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the supervisor status of a running host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Status(cmd.Context(), *f)
		},
	}
	addAPIFlags(cmd, f)
	return cmd
}

func createCloseCommand(c *command, g *GlobalFlags) *cobra.Command {
	f := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Send a window close request to a running host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Close(cmd.Context(), *f)
		},
	}
	addAPIFlags(cmd, f)
	return cmd
}
