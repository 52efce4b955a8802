package device

import (
	"testing"

	"github.com/hollyward/showbox-core/internal/infrastructure/config"
)

func testDirectory() *Directory {
	return NewDirectory([]config.DeviceConfig{
		{ID: "kristine", Name: "Kristine's Box", Topic: "lockbox/1"},
		{ID: "jacob", Name: "Jacob's Box", Topic: "lockbox/2"},
		{ID: "sam", Name: "Sam's Box", Topic: "lockbox/3"},
	}, nil)
}

func TestResolve_ExactID(t *testing.T) {
	dir := testDirectory()

	tests := []struct {
		name string
		want int
	}{
		{"kristine", 0},
		{"jacob", 1},
		{"sam", 2},
		{"SAM", 2},
		{"  jacob  ", 1},
	}

	for _, tt := range tests {
		if got := dir.Resolve(tt.name); got != tt.want {
			t.Errorf("Resolve(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestResolve_ExactBeatsSubstring(t *testing.T) {
	// "sam" must hit the exact-ID device even though "samantha" contains it
	// and appears earlier in the list.
	dir := NewDirectory([]config.DeviceConfig{
		{ID: "samantha", Name: "Samantha's Box", Topic: "lockbox/1"},
		{ID: "sam", Name: "Sam's Box", Topic: "lockbox/2"},
	}, nil)

	if got := dir.Resolve("sam"); got != 1 {
		t.Errorf("Resolve(\"sam\") = %d, want 1 (exact ID beats substring)", got)
	}
}

func TestResolve_IDSubstring(t *testing.T) {
	dir := testDirectory()

	// "kris" matches no exact ID but is contained in "kristine".
	if got := dir.Resolve("kris"); got != 0 {
		t.Errorf("Resolve(\"kris\") = %d, want 0", got)
	}
}

func TestResolve_NameSubstring(t *testing.T) {
	dir := testDirectory()

	// "box" is not in any ID; every display name contains it, so directory
	// order wins and index 0 is returned.
	if got := dir.Resolve("box"); got != 0 {
		t.Errorf("Resolve(\"box\") = %d, want 0 (first name match)", got)
	}

	// Apostrophes match against the display name only.
	if got := dir.Resolve("jacob's"); got != 1 {
		t.Errorf("Resolve(\"jacob's\") = %d, want 1", got)
	}
}

func TestResolve_FailsOpenToZero(t *testing.T) {
	dir := testDirectory()

	for _, name := range []string{"zzz", "", "santa"} {
		if got := dir.Resolve(name); got != 0 {
			t.Errorf("Resolve(%q) = %d, want 0 (fail open)", name, got)
		}
	}
}

func TestResolve_Deterministic(t *testing.T) {
	dir := testDirectory()

	for _, name := range []string{"sam", "kris", "zzz", ""} {
		first := dir.Resolve(name)
		for i := 0; i < 3; i++ {
			if got := dir.Resolve(name); got != first {
				t.Errorf("Resolve(%q) not deterministic: %d then %d", name, first, got)
			}
		}
	}
}

func TestResolve_EmptyDirectory(t *testing.T) {
	dir := NewDirectory(nil, nil)

	if got := dir.Resolve("anyone"); got != 0 {
		t.Errorf("Resolve on empty directory = %d, want 0", got)
	}
	if dir.Len() != 0 {
		t.Errorf("Len() = %d, want 0", dir.Len())
	}
}

func TestGet(t *testing.T) {
	dir := testDirectory()

	dev, ok := dir.Get(1)
	if !ok {
		t.Fatal("Get(1) failed")
	}
	if dev.Topic != "lockbox/2" {
		t.Errorf("Get(1).Topic = %q, want lockbox/2", dev.Topic)
	}

	if _, ok := dir.Get(3); ok {
		t.Error("Get(3) should fail for 3-device directory")
	}
	if _, ok := dir.Get(-1); ok {
		t.Error("Get(-1) should fail")
	}
}
