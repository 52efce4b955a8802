// Package script provides the show script model and its JSON loader.
//
// A script is an ordered, finite sequence of items; order is significant and
// fixed at load time. Items are immutable once loaded; the sequencer only
// ever reads them.
package script

import (
	"encoding/json"
	"fmt"
	"os"
)

// Item is one scripted line: who speaks, which audio clip to play, and the
// caption text shown alongside it.
type Item struct {
	Character string `json:"character"`
	MediaRef  string `json:"file"`
	Text      string `json:"text"`
}

// Parse decodes a show sequence from JSON.
//
// The wire format is the show asset file: a JSON array of
// {"character": ..., "file": ..., "text": ...} objects.
func Parse(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing show sequence: %w", err)
	}
	return items, nil
}

// Load reads and parses a show sequence file.
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading show sequence: %w", err)
	}
	return Parse(data)
}
