package models

import "testing"

func TestTrackIndex(t *testing.T) {
	tracks := []Track{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"first", "a", 0},
		{"last", "c", 2},
		{"missing", "zzz", -1},
		{"empty id", "", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrackIndex(tracks, tt.id); got != tt.want {
				t.Errorf("TrackIndex(%q) = %d; want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestFindTrackReturnsReferenceIntoSlice(t *testing.T) {
	tracks := []Track{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}

	got := FindTrack(tracks, "b")
	if got == nil {
		t.Fatal("FindTrack(b) = nil; want track")
	}
	if got != &tracks[1] {
		t.Error("FindTrack should point into the loaded slice, not a copy")
	}
	if FindTrack(tracks, "missing") != nil {
		t.Error("FindTrack(missing) should be nil")
	}
}
