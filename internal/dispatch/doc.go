// Package dispatch provides the command dispatcher for Showbox Core.
//
// The dispatcher owns the messaging-channel lifecycle and is the single
// writer of connection state. Its state machine is:
//
//	Disconnected → Connecting → Connected
//	Connected    → ReconnectPending → Connecting   (connection lost, publish failure)
//	Connecting   → ReconnectPending → Connecting   (connect attempt failed)
//
// Every failure schedules a retry after a fixed delay and retries continue
// forever: a show-control channel must eventually recover without an
// operator touching it.
//
// Commands are fire-and-forget. Send drops the message silently when the
// channel is down or the device index is out of range; the dispatcher never
// buffers, because a stale "speaking on" arriving seconds late is worse for
// the show than a dropped one.
//
// Inbound device status (JSON on the subscribed status topic) replaces the
// last-known snapshot and notifies the registered observer; malformed
// payloads are logged and dropped.
package dispatch
