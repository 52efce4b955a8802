// Package playback runs external processes for media playback and speech
// synthesis.
//
// Each clip or utterance is one short-lived subprocess (mpv, espeak-ng or
// equivalents from configuration). Completion and failure are reported
// through per-call callbacks so the sequencer and speech queue can stay
// event-driven without polling child processes.
package playback
