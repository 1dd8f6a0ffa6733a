package lifecycle

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/adaptive-scale/docmine/pkg/apierr"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// TailLines returns the last n lines of the log file at path.
func TailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apierr.Wrap(apierr.Internal, "failed to open log file", err)
	}
	defer f.Close()

	var buf []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		buf = append(buf, scanner.Text())
		if len(buf) > n {
			buf = buf[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apierr.Wrap(apierr.Internal, "failed to read log file", err)
	}
	return buf, nil
}

// FollowLines streams new lines appended to path into out until ctx is
// canceled, using fsnotify to wake on writes instead of polling.
func FollowLines(ctx context.Context, path string, out chan<- string) error {
	f, err := os.Open(path)
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to open log file for following", err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return apierr.Wrap(apierr.Internal, "failed to seek to end of log file", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to create log watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return apierr.Wrap(apierr.Internal, "failed to watch log file", err)
	}

	reader := bufio.NewReader(f)
	drain := func() {
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				out <- strings.TrimRight(line, "\n")
			}
			if err != nil {
				return
			}
		}
	}
	drain()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				drain()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("log watcher error")
		}
	}
}
