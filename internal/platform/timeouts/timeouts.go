// Package timeouts defines shared timeout constants used by the finder process.
package timeouts

import "time"

// ReadHeader limits how long the metrics HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during graceful shutdown.
const Shutdown = 5 * time.Second

// Telemetry caps how long pending spans may take to flush on exit.
const Telemetry = 5 * time.Second
