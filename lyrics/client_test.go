package lyrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantNil    bool
		wantLyrics string
		wantInfo   string
	}{
		{
			name:       "plain lyrics preferred",
			body:       `[{"trackName":"Song","artistName":"Band","plainLyrics":"la la","syncedLyrics":"[00:01.00] no"}]`,
			wantLyrics: "la la",
			wantInfo:   "Song by Band",
		},
		{
			name:       "synced lyrics stripped",
			body:       `[{"trackName":"Song","syncedLyrics":"[00:01.00]first\n[00:02.50]second"}]`,
			wantLyrics: "first\nsecond",
			wantInfo:   "Song",
		},
		{
			name:     "match without lyrics",
			body:     `[{"trackName":"Song","artistName":"Band"}]`,
			wantInfo: "Song by Band",
		},
		{
			name:    "no match",
			body:    `[]`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query().Get("q")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res, err := NewWithBaseURL(srv.URL).Search(context.Background(), "Song First")
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if gotQuery != "Song First" {
				t.Errorf("query = %q", gotQuery)
			}
			if tt.wantNil {
				if res != nil {
					t.Errorf("Search() = %+v, want nil", res)
				}
				return
			}
			if res == nil {
				t.Fatal("Search() = nil")
			}
			if res.Lyrics != tt.wantLyrics {
				t.Errorf("Lyrics = %q, want %q", res.Lyrics, tt.wantLyrics)
			}
			if res.TrackInfo != tt.wantInfo {
				t.Errorf("TrackInfo = %q, want %q", res.TrackInfo, tt.wantInfo)
			}
		})
	}
}

func TestSearchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewWithBaseURL(srv.URL).Search(context.Background(), "x"); err == nil {
		t.Error("expected error for non-200 status")
	}
}
