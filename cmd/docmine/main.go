// Command docmine is the operator-facing CLI for the Server Lifecycle
// Manager (spec §4.8): start, stop, restart, status, logs, kill-port and
// config, all driven through pkg/lifecycle against a state directory on
// disk so this process never needs to stay resident itself.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/adaptive-scale/docmine/pkg/lifecycle"
	"github.com/spf13/cobra"
)

func stateDir() string {
	if d := os.Getenv("DOCMINE_STATE_DIR"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docmine"
	}
	return filepath.Join(home, ".docmine")
}

func newManager() (*lifecycle.Manager, error) {
	dir := stateDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	serverPath, err := serverBinaryPath()
	if err != nil {
		return nil, err
	}
	m := lifecycle.New(
		filepath.Join(dir, "server.pid"),
		filepath.Join(dir, "server.log"),
		filepath.Join(dir, "config.json"),
		func(cfg lifecycle.Config) (string, []string) {
			// docmine-server reads its bind address, log level and data
			// directory from the environment; set them here so the child
			// picks up the persisted config rather than its own defaults.
			os.Setenv("PORT", strconv.Itoa(cfg.Port))
			os.Setenv("HOST", cfg.Host)
			os.Setenv("LOG_LEVEL", cfg.LogLevel)
			if dataDir := os.Getenv("DOCMINE_DATA_DIR"); dataDir == "" {
				os.Setenv("DOCMINE_DATA_DIR", filepath.Join(dir, "data"))
			}
			return serverPath, []string{}
		},
	)
	return m, nil
}

// serverBinaryPath resolves the docmine-server executable: next to this
// binary first (the installed layout), then whatever's on PATH.
func serverBinaryPath() (string, error) {
	self, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(self), "docmine-server")
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("docmine-server"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("docmine-server binary not found next to %s or on PATH", self)
}

func main() {
	root := &cobra.Command{
		Use:   "docmine",
		Short: "docmine — document analysis service supervisor",
		Long:  "Manages the lifecycle of the docmine-server process: start, stop, restart, status, logs, kill-port and config.",
	}

	root.AddCommand(
		startCmd(),
		stopCmd(),
		restartCmd(),
		statusCmd(),
		logsCmd(),
		killPortCmd(),
		configCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func startCmd() *cobra.Command {
	var force bool
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the server if it is not already running",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if host != "" || port != 0 {
				patch := lifecycle.ConfigPatch{}
				if host != "" {
					patch.Host = &host
				}
				if port != 0 {
					patch.Port = &port
				}
				if _, err := lifecycle.Patch(m.ConfigFile, patch); err != nil {
					return err
				}
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := m.Start(ctx, force); err != nil {
				return err
			}
			fmt.Println("server started")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reclaim the configured port from a foreign process first")
	cmd.Flags().StringVar(&host, "host", "", "bind host (persisted to config)")
	cmd.Flags().IntVar(&port, "port", 0, "bind port (persisted to config)")
	return cmd
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the server, if running",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := m.Stop(ctx); err != nil {
				return err
			}
			fmt.Println("server stopped")
			return nil
		},
	}
}

func restartCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Stop then start the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := m.Restart(ctx, force); err != nil {
				return err
			}
			fmt.Println("server restarted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reclaim the configured port from a foreign process first")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the current lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			status, err := m.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("state: %s\n", status.State)
			if !status.Running && status.PortOwnerMismatch {
				fmt.Println("port_owner_mismatch: true (something else is listening on the configured port)")
			}
			if status.Running {
				fmt.Printf("pid: %d\n", status.PID)
				fmt.Printf("uptime: %.0fs\n", status.UptimeSeconds)
				fmt.Printf("cpu: %.1f%%\n", status.CPUPercent)
				fmt.Printf("rss: %d bytes\n", status.RSSBytes)
				fmt.Printf("ports: %v\n", status.ListeningPorts)
			}
			return nil
		},
	}
}

func logsCmd() *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show or follow the server log",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			tail, err := lifecycle.TailLines(m.LogFile, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Println(line)
			}
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := make(chan string, 64)
			errCh := make(chan error, 1)
			go func() { errCh <- lifecycle.FollowLines(ctx, m.LogFile, out) }()

			for {
				select {
				case line := <-out:
					fmt.Println(line)
				case err := <-errCh:
					return err
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().IntVar(&lines, "lines", 50, "number of trailing lines to print")
	cmd.Flags().BoolVar(&follow, "follow", false, "stream new log lines as they are written")
	return cmd
}

func killPortCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "kill-port",
		Short: "Terminate whatever process is listening on a port",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				return fmt.Errorf("--port is required")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := lifecycle.KillPort(ctx, port); err != nil {
				return err
			}
			fmt.Printf("port %d reclaimed\n", port)
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "port to reclaim")
	return cmd
}

func configCmd() *cobra.Command {
	var host string
	var port int
	var reload bool
	var reloadSet bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or patch the persisted server configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if host == "" && port == 0 && !reloadSet {
				cfg, err := lifecycle.ReadConfig(m.ConfigFile)
				if err != nil {
					return err
				}
				fmt.Printf("host: %s\nport: %d\nworkers: %d\nreload: %t\nlog_level: %s\n",
					cfg.Host, cfg.Port, cfg.Workers, cfg.Reload, cfg.LogLevel)
				return nil
			}
			patch := lifecycle.ConfigPatch{}
			if host != "" {
				patch.Host = &host
			}
			if port != 0 {
				patch.Port = &port
			}
			if reloadSet {
				patch.Reload = &reload
			}
			cfg, err := lifecycle.Patch(m.ConfigFile, patch)
			if err != nil {
				return err
			}
			fmt.Printf("config updated: host=%s port=%d reload=%t\n", cfg.Host, cfg.Port, cfg.Reload)
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "bind host")
	cmd.Flags().IntVar(&port, "port", 0, "bind port")
	cmd.Flags().BoolVar(&reload, "reload", false, "enable auto-reload")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		reloadSet = cmd.Flags().Changed("reload")
	}
	return cmd
}
