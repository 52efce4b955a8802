package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteAmplitude records one sampled amplitude level in [0,1].
//
// Polled at animation-frame cadence during playback; batching keeps the
// per-sample cost to an in-memory append.
func (c *Client) WriteAmplitude(level float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"amplitude",
		nil,
		map[string]interface{}{
			"level": level,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteItemPlayback records the playback duration of one script item.
//
// Parameters:
//   - character: The item's character
//   - mediaRef: The media reference that was played
//   - duration: Wall-clock time from item start to item end
func (c *Client) WriteItemPlayback(character, mediaRef string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"item_playback",
		map[string]string{
			"character": character,
		},
		map[string]interface{}{
			"media_ref":        mediaRef,
			"duration_seconds": duration.Seconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteChannelState records a command-channel state transition.
func (c *Client) WriteChannelState(state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"channel_state",
		map[string]string{
			"state": state,
		},
		map[string]interface{}{
			"value": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCue records one animation cue sent to a device.
func (c *Client) WriteCue(character, cueType, state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"cues",
		map[string]string{
			"character": character,
			"type":      cueType,
			"state":     state,
		},
		map[string]interface{}{
			"value": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point for measurements the helpers don't
// cover.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
