// Package sequencer drives ordered playback of a show script.
//
// The sequencer owns the playback cursor: it advances item by item through
// a loaded script, plays each item's media, and fires lifecycle events that
// consumers (game layer, lighting, narration) subscribe to. Failed or
// missing assets are skipped after a grace delay so one bad clip never
// stalls a live show.
package sequencer
