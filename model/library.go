package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// TrackList 以 JSON 格式存储的曲目列表
type TrackList []Track

// Scan 实现 sql.Scanner 接口
func (l *TrackList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*l = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Value 实现 driver.Valuer 接口
func (l TrackList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// LibraryEntry is a disc that has been identified at least once.
type LibraryEntry struct {
	ID           int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	DiscID       string    `json:"discId" gorm:"type:varchar(32);uniqueIndex;not null"`
	ReleaseID    string    `json:"releaseId,omitempty" gorm:"type:varchar(36)"`
	Artist       string    `json:"artist,omitempty" gorm:"type:varchar(255)"`
	Album        string    `json:"album,omitempty" gorm:"type:varchar(255)"`
	TrackCount   int       `json:"trackCount"`
	Tracks       TrackList `json:"tracks,omitempty" gorm:"type:json"`
	PlayCount    int       `json:"playCount"`
	LastPlayedAt time.Time `json:"lastPlayedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (LibraryEntry) TableName() string {
	return "library_discs"
}

// NewLibraryEntry captures the identifying fields of a disc.
func NewLibraryEntry(d Disc) *LibraryEntry {
	return &LibraryEntry{
		DiscID:     d.ID,
		ReleaseID:  d.ReleaseID,
		Artist:     d.Artist,
		Album:      d.Album,
		TrackCount: d.NumTracks(),
		Tracks:     TrackList(d.Tracks),
	}
}
