package hooks

import (
	"runtime"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const repoMarker = "heft/"

type contextHook struct {
}

// NewContextHook returns a hook that tags each entry with the repo-relative
// file:line of the call site that logged it.
func NewContextHook() log.Hook {
	return contextHook{}
}

func (hook contextHook) Levels() []log.Level {
	return log.AllLevels
}

func (hook contextHook) Fire(entry *log.Entry) error {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isLoggingFrame(frame.File) {
			entry.Data["file:line"] = trimFile(frame.File) + ":" + strconv.Itoa(frame.Line)
			return nil
		}
		if !more {
			return nil
		}
	}
}

func isLoggingFrame(file string) bool {
	return strings.Contains(file, "sirupsen/logrus") || strings.HasSuffix(file, "log/hooks/context_hook.go")
}

func trimFile(file string) string {
	if idx := strings.LastIndex(file, repoMarker); idx >= 0 {
		return file[idx+len(repoMarker):]
	}
	return file
}
