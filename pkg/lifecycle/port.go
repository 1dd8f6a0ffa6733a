package lifecycle

import (
	"context"
	"fmt"
	"syscall"
	"time"

	gopsnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

const forceKillGrace = 2 * time.Second

// pidsListeningOnPort enumerates the PIDs of processes with a listening
// TCP connection on port.
func pidsListeningOnPort(port int) ([]int32, error) {
	conns, err := gopsnet.Connections("tcp")
	if err != nil {
		return nil, err
	}
	seen := make(map[int32]bool)
	var pids []int32
	for _, c := range conns {
		if c.Status != "LISTEN" {
			continue
		}
		if int(c.Laddr.Port) != port {
			continue
		}
		if c.Pid == 0 || seen[c.Pid] {
			continue
		}
		seen[c.Pid] = true
		pids = append(pids, c.Pid)
	}
	return pids, nil
}

// KillPort terminates every process listening on port: graceful signal
// first, force kill after forceKillGrace if it hasn't exited. Succeeds if
// the port is free at the end, regardless of whether any process was found.
func KillPort(ctx context.Context, port int) error {
	pids, err := pidsListeningOnPort(port)
	if err != nil {
		return err
	}

	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}
		log.WithField("pid", pid).WithField("port", port).Info("terminating process holding port")
		if err := proc.SendSignalWithContext(ctx, syscall.SIGTERM); err != nil {
			log.WithError(err).WithField("pid", pid).Warn("failed to send SIGTERM")
		}
	}

	deadline := time.Now().Add(forceKillGrace)
	for time.Now().Before(deadline) {
		remaining, err := pidsListeningOnPort(port)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	remaining, err := pidsListeningOnPort(port)
	if err != nil {
		return err
	}
	for _, pid := range remaining {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}
		log.WithField("pid", pid).WithField("port", port).Warn("force killing process holding port")
		_ = proc.KillWithContext(ctx)
	}

	deadline = time.Now().Add(forceKillGrace)
	for time.Now().Before(deadline) {
		remaining, err = pidsListeningOnPort(port)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("port %d is still in use after force kill", port)
}

// isPortInUse reports whether any process is currently listening on port.
func isPortInUse(port int) (bool, error) {
	pids, err := pidsListeningOnPort(port)
	if err != nil {
		return false, err
	}
	return len(pids) > 0, nil
}
