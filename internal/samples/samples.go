// Package samples generates synthetic application log excerpts for exercising
// the ingestion pipeline.
package samples

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// fatalShare is the probability that Generate emits a fatal crash log instead
// of a single warning line.
const fatalShare = 0.6

type fatal struct {
	code    string
	message string
}

var fatals = []fatal{
	{"ECONNRESET", "Connection reset by peer. The server was handling multiple client connections when one of the sockets abruptly closed, causing an unhandled exception and triggering the shutdown sequence."},
	{"EADDRINUSE", "Address already in use. The server attempted to bind to the configured port, but it is currently occupied by another process, resulting in a fatal bind error and immediate shutdown."},
	{"ETIMEDOUT", "Operation timed out. A critical operation failed to complete within the expected time frame, indicating network instability or resource starvation, and the server is shutting down to prevent inconsistent state."},
	{"ECONNREFUSED", "Connection refused. The server attempted to connect to a critical dependent service, which refused the connection, leading to a cascading failure and triggering a controlled shutdown."},
	{"EPIPE", "Broken pipe. The server attempted to write to a socket that was already closed by the client, resulting in an uncaught exception and initiating server shutdown procedures."},
	{"ENOTFOUND", "Host not found. A DNS resolution attempt failed for a required external service, causing a fatal error that halted ongoing operations and triggered server shutdown."},
	{"ENOMEM", "Out of memory. The process exceeded available memory limits during intensive operations, which forced the runtime to abort critical tasks and initiate a shutdown to prevent data corruption."},
}

var warnings = []string{
	"High memory usage detected. Current usage is 82%, which is above the recommended threshold. Consider scaling up memory or investigating memory leaks.",
	"CPU usage exceeds threshold. One or more worker threads are consuming excessive CPU time, potentially affecting response times for incoming requests.",
	"Slow response detected on endpoint /api/data. Average response time has exceeded 1200ms for the last 10 requests, indicating potential database latency or resource contention.",
	"Disk usage above 85%. The filesystem storing critical logs and temporary files is nearing full capacity, which may cause failures in file writes and data loss.",
	"Connection pool nearing limit. The number of concurrent database connections is approaching the configured maximum, which may result in refused connections or delayed responses.",
}

// Generator produces random log excerpts. Safe for concurrent use; the zero
// value is not usable, call New.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// New returns a Generator seeded from the runtime's random source.
func New() *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // sample data, not security sensitive
		now: time.Now,
	}
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed uint64, now func() time.Time) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed)), //nolint:gosec // sample data, not security sensitive
		now: now,
	}
}

// Generate returns either a single warning line or a multi-line fatal crash
// and shutdown sequence.
func (g *Generator) Generate() string {
	ts := g.now().UTC().Format("2006-01-02T15:04:05.000Z")

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rnd.Float64() >= fatalShare {
		return fmt.Sprintf("[WARN] [%s] %s", ts, warnings[g.rnd.IntN(len(warnings))])
	}

	f := fatals[g.rnd.IntN(len(fatals))]
	lines := []string{
		fmt.Sprintf("[ERROR] [%s] Server encountered a fatal error and is shutting down...", ts),
		"Error: Uncaught exception: " + f.code,
		"Details: " + f.message,
		"    at TLSSocket.onConnectReset (node:_tls_wrap:1257:25)",
		"    at TLSSocket.emit (node:events:517:28)",
		"    at emitErrorNT (node:internal/streams/destroy:151:8)",
		"    at process.processTicksAndRejections (node:internal/process/task_queues:83:21)",
		"",
		fmt.Sprintf("[INFO] [%s] Initiating graceful shutdown (SIGTERM received)", ts),
		fmt.Sprintf("[INFO] [%s] Closing active HTTP connections (%d remaining)", ts, g.rnd.IntN(20)+1),
		fmt.Sprintf("[WARN] [%s] Timeout while waiting for requests to finish", ts),
		fmt.Sprintf("[INFO] [%s] Database connection closed", ts),
		fmt.Sprintf("[INFO] [%s] Server shutdown complete. Exiting with code 1", ts),
	}
	return strings.Join(lines, "\n")
}
