// Package speech provides the narration queue for Showbox Core.
//
// Narration requests are serialized through a strict FIFO queue with at most
// one synthesis in flight, so overlapping callers can never produce
// overlapping voices. Each non-system utterance is bracketed by "speaking"
// animation cues to the character's box, and the off-cue fires on every exit
// path: a box stuck mid-animation is the one failure an audience notices.
//
// Voice selection mirrors the device directory's forgiving policy: each
// character has an ordered list of candidate voice names matched by
// substring against the voices actually installed, falling back to the
// first available voice when nothing matches.
package speech
