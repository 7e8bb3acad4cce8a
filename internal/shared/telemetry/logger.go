package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const defaultService = "sourcing-backend"

var (
	mu      sync.Mutex
	out     io.Writer
	service = defaultService
	now     = time.Now
)

// SetService sets the service field stamped on every line. The API, worker
// and lambda binaries each call it once at startup.
func SetService(name string) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		name = defaultService
	}
	service = name
}

// SetOutput redirects log lines and returns a func restoring the previous
// writer. A nil writer means whatever os.Stdout is at write time.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return func() {
		mu.Lock()
		out = prev
		mu.Unlock()
	}
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write("info", msg, fields)
}

// Warn writes a warn-level log line. Client errors (4xx) land here.
func Warn(msg string, fields map[string]any) {
	write("warn", msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write("error", msg, fields)
}

func write(level, msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()

	w := out
	if w == nil {
		w = os.Stdout
	}
	ts := now().UTC().Format(time.RFC3339)
	entry := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		entry[k] = v
	}
	// reserved keys win over caller fields
	entry["ts"] = ts
	entry["level"] = level
	entry["msg"] = msg
	entry["service"] = service

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(w, `{"ts":"%s","level":"error","msg":"logger marshal failed","service":%q,"err":%q}`+"\n", ts, service, err.Error())
		return
	}
	fmt.Fprintln(w, string(data))
}
