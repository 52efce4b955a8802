// Package device provides the device directory for Showbox Core.
//
// The directory is a static, ordered table of animatronic endpoints loaded
// from configuration. A device's position in the list is its index, and the
// dispatcher addresses devices by index. Free-text character names from the
// script are resolved to an index with a deliberately forgiving policy:
// during a live show a cue routed to the wrong box beats a cue that goes
// nowhere, so resolution fails open to index 0 rather than erroring.
package device
