// Package audio provides amplitude sampling for playback visualization.
//
// The sampler is pull-based: callers poll Sample at whatever rate the
// animation layer needs, and the sampler reduces the current frequency
// spectrum of the attached source to a single normalized level.
package audio
