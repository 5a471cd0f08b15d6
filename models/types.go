package models

import "time"

// Track is a song as served by the catalog. The zero value is not a valid track.
type Track struct {
	ID       string `json:"_id" bson:"_id,omitempty"`
	Name     string `json:"name" bson:"name"`
	Desc     string `json:"desc" bson:"desc"`
	Album    string `json:"album" bson:"album"`
	Image    string `json:"image" bson:"image"`
	File     string `json:"file" bson:"file"`
	Duration string `json:"duration" bson:"duration"`
}

type Album struct {
	ID       string `json:"_id" bson:"_id,omitempty"`
	Name     string `json:"name" bson:"name"`
	Desc     string `json:"desc" bson:"desc"`
	BgColour string `json:"bgColour" bson:"bgColour"`
	Image    string `json:"image" bson:"image"`
}

// PlayRecord is one entry of the play history.
type PlayRecord struct {
	ID       string    `json:"id" bson:"_id,omitempty"`
	TrackID  string    `json:"trackId" bson:"trackId"`
	Name     string    `json:"name" bson:"name"`
	PlayedAt time.Time `json:"playedAt" bson:"playedAt"`
}

type MostPlayedRecord struct {
	TrackID    string    `json:"trackId" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	PlayCount  int       `json:"playCount" bson:"playCount"`
	LastPlayed time.Time `json:"lastPlayed" bson:"lastPlayed"`
}

type SongListResponse struct {
	Success bool    `json:"success"`
	Songs   []Track `json:"songs"`
}

type AlbumListResponse struct {
	Success bool    `json:"success"`
	Albums  []Album `json:"albums"`
}

// FindTrack returns a pointer into tracks for the given id, or nil.
func FindTrack(tracks []Track, id string) *Track {
	if i := TrackIndex(tracks, id); i >= 0 {
		return &tracks[i]
	}
	return nil
}

// TrackIndex returns the position of id in tracks, -1 when absent.
func TrackIndex(tracks []Track, id string) int {
	for i := range tracks {
		if tracks[i].ID == id {
			return i
		}
	}
	return -1
}
