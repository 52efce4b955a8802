// Package mqtt provides the MQTT transport for Showbox Core.
//
// This package wraps paho.mqtt.golang as a deliberately thin, single-attempt
// transport: one Dial is one connection attempt, reported asynchronously via
// success/failure callbacks, and a lost connection is reported once via the
// connection-lost callback. Reconnection policy lives in the command
// dispatcher, which retries on a fixed delay forever; paho's own
// auto-reconnect and retry machinery is disabled so there is exactly one
// owner of connection state.
//
// The broker is typically reached over a websocket listener (ws://), the
// same path the show floor tablets use, though plain tcp:// works too.
//
// # Usage
//
//	client := mqtt.NewClient(cfg.MQTT)
//	client.Dial(
//	    func() { /* connected */ },
//	    func(err error) { /* attempt failed */ },
//	)
package mqtt
