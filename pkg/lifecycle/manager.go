// Package lifecycle implements the Server Lifecycle Manager (spec §4.8):
// start/stop/restart/status/port-reclaim/log-tailing for the HTTP server
// process that hosts every other component.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/adaptive-scale/docmine/pkg/apierr"
	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

const (
	defaultStartupTimeout = 5 * time.Second
	defaultStopTimeout    = 10 * time.Second

	// serverSignature is matched against a PID's command line to confirm
	// it is the process this manager spawned, defeating PID reuse.
	serverSignature = "docmine-server"
)

// Manager supervises one HTTP server process via PID/log/config files on
// disk, the way a process supervisor in this codebase's style always does:
// no persistent daemon of its own, everything rediscovered from files.
type Manager struct {
	PIDFile    string
	LogFile    string
	ConfigFile string

	// ServerCommand builds the command used to launch the server process,
	// e.g. the path to the docmine-server binary, which takes its host and
	// port from the environment rather than from flags.
	ServerCommand func(cfg Config) (name string, args []string)

	StartupTimeout time.Duration
	StopTimeout    time.Duration
}

// New returns a Manager rooted at the given state files.
func New(pidFile, logFile, configFile string, serverCommand func(Config) (string, []string)) *Manager {
	return &Manager{
		PIDFile:        pidFile,
		LogFile:        logFile,
		ConfigFile:     configFile,
		ServerCommand:  serverCommand,
		StartupTimeout: defaultStartupTimeout,
		StopTimeout:    defaultStopTimeout,
	}
}

// Start spawns the server process if one is not already running and
// healthy. If force is true and the configured port is held by a foreign
// process, that process is reclaimed first.
func (m *Manager) Start(ctx context.Context, force bool) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if status.Running {
		log.Info("start called while already running, treating as success (idempotent)")
		return nil
	}

	cfg, err := ReadConfig(m.ConfigFile)
	if err != nil {
		return err
	}

	inUse, err := isPortInUse(cfg.Port)
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to check port availability", err)
	}
	if inUse {
		if !force {
			return apierr.New(apierr.PortInUse, fmt.Sprintf("port %d is already in use", cfg.Port))
		}
		if err := KillPort(ctx, cfg.Port); err != nil {
			return apierr.Wrap(apierr.PortInUse, "failed to reclaim port", err)
		}
	}

	logFile, err := os.OpenFile(m.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to open log file", err)
	}
	defer logFile.Close()

	name, args := m.ServerCommand(cfg)
	cmd := exec.Command(name, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return apierr.Wrap(apierr.StartFailed, "failed to spawn server process", err)
	}

	if err := m.waitForBind(ctx, cfg.Port); err != nil {
		_ = cmd.Process.Kill()
		return apierr.Wrap(apierr.StartFailed, "server did not bind its port in time", err)
	}

	if err := os.WriteFile(m.PIDFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0o644); err != nil {
		_ = cmd.Process.Kill()
		return apierr.Wrap(apierr.Internal, "failed to write PID file", err)
	}

	log.WithField("pid", cmd.Process.Pid).WithField("port", cfg.Port).Info("server started")
	return nil
}

func (m *Manager) waitForBind(ctx context.Context, port int) error {
	deadline := time.Now().Add(m.startupTimeout())
	for time.Now().Before(deadline) {
		inUse, err := isPortInUse(port)
		if err == nil && inUse {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return fmt.Errorf("timed out waiting for port %d to be bound", port)
}

// Stop sends a graceful termination signal to the supervised process,
// escalating to a kill signal if it is still alive after StopTimeout.
// Stop on an already-stopped server is success (idempotent).
func (m *Manager) Stop(ctx context.Context) error {
	pid, ok, err := m.readValidPID()
	if err != nil {
		return err
	}
	if !ok {
		_ = os.Remove(m.PIDFile)
		return nil
	}

	proc, err := process.NewProcess(pid)
	if err != nil {
		_ = os.Remove(m.PIDFile)
		return nil
	}

	if err := proc.SendSignalWithContext(ctx, syscall.SIGTERM); err != nil {
		log.WithError(err).Warn("failed to send SIGTERM, process may already be gone")
	}

	deadline := time.Now().Add(m.stopTimeout())
	for time.Now().Before(deadline) {
		alive, _ := proc.IsRunningWithContext(ctx)
		if !alive {
			_ = os.Remove(m.PIDFile)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := proc.KillWithContext(ctx); err != nil {
		log.WithError(err).Warn("failed to force kill server process")
	}
	_ = os.Remove(m.PIDFile)
	return nil
}

// Restart stops then starts the server. It is not atomic: a failed Start
// after a successful Stop leaves the service stopped.
func (m *Manager) Restart(ctx context.Context, force bool) error {
	if err := m.Stop(ctx); err != nil {
		return err
	}
	return m.Start(ctx, force)
}

// Status reports the current lifecycle state (spec §4.8). A PID file that
// fails any of the three validation checks demotes the result to "not
// running" and is cleared.
type Status struct {
	State            State   `json:"state"`
	Running          bool    `json:"running"`
	PID              int32   `json:"pid,omitempty"`
	UptimeSeconds    float64 `json:"uptime_seconds,omitempty"`
	CPUPercent       float64 `json:"cpu_percent,omitempty"`
	RSSBytes         uint64  `json:"rss_bytes,omitempty"`
	ListeningPorts   []int   `json:"listening_ports,omitempty"`
	PortOwnerMismatch bool   `json:"port_owner_mismatch"`
}

func (m *Manager) Status(ctx context.Context) (Status, error) {
	cfg, err := ReadConfig(m.ConfigFile)
	if err != nil {
		return Status{}, err
	}

	pid, ok, err := m.readValidPID()
	if err != nil {
		return Status{}, err
	}
	if !ok {
		inUse, _ := isPortInUse(cfg.Port)
		return Status{State: StateStopped, Running: false, PortOwnerMismatch: inUse}, nil
	}

	proc, err := process.NewProcess(pid)
	if err != nil {
		_ = os.Remove(m.PIDFile)
		inUse, _ := isPortInUse(cfg.Port)
		return Status{State: StateStopped, Running: false, PortOwnerMismatch: inUse}, nil
	}

	if !m.matchesServerSignature(proc) {
		_ = os.Remove(m.PIDFile)
		inUse, _ := isPortInUse(cfg.Port)
		return Status{State: StateStopped, Running: false, PortOwnerMismatch: inUse}, nil
	}

	listening, err := pidsListeningOnPort(cfg.Port)
	if err != nil || !int32InSlice(pid, listening) {
		_ = os.Remove(m.PIDFile)
		inUse, _ := isPortInUse(cfg.Port)
		return Status{State: StateUnhealthy, Running: false, PID: pid, PortOwnerMismatch: inUse}, nil
	}

	createdMs, _ := proc.CreateTimeWithContext(ctx)
	cpuPercent, _ := proc.CPUPercentWithContext(ctx)
	mem, _ := proc.MemoryInfoWithContext(ctx)

	var uptime float64
	if createdMs > 0 {
		uptime = time.Since(time.UnixMilli(createdMs)).Seconds()
	}
	var rss uint64
	if mem != nil {
		rss = mem.RSS
	}

	return Status{
		State:          StateRunning,
		Running:        true,
		PID:            pid,
		UptimeSeconds:  uptime,
		CPUPercent:     cpuPercent,
		RSSBytes:       rss,
		ListeningPorts: []int{cfg.Port},
	}, nil
}

func (m *Manager) matchesServerSignature(proc *process.Process) bool {
	cmdline, err := proc.Cmdline()
	if err != nil {
		return false
	}
	return strings.Contains(cmdline, serverSignature)
}

func (m *Manager) readValidPID() (int32, bool, error) {
	data, err := os.ReadFile(m.PIDFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, apierr.Wrap(apierr.Internal, "failed to read PID file", err)
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, false, nil
	}
	return int32(pid), true, nil
}

func (m *Manager) startupTimeout() time.Duration {
	if m.StartupTimeout > 0 {
		return m.StartupTimeout
	}
	return defaultStartupTimeout
}

func (m *Manager) stopTimeout() time.Duration {
	if m.StopTimeout > 0 {
		return m.StopTimeout
	}
	return defaultStopTimeout
}

func int32InSlice(needle int32, haystack []int32) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
