// Package telemetry records show metrics to InfluxDB.
//
// Amplitude levels, item playback timings and channel state changes are
// written as non-blocking batched points so the show control loop never
// waits on the metrics backend. Telemetry is optional; when disabled in
// configuration the rest of the system runs without it.
package telemetry
