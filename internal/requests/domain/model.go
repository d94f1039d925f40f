package domain

import "time"

// SongRequest is one entry in a broadcast day's list.
type SongRequest struct {
	ID          int       `json:"id"`
	SongName    string    `json:"song_name"`
	ClassName   string    `json:"class_name"`
	StudentName string    `json:"student_name"`
	RequestDate time.Time `json:"request_date"`
	Votes       int       `json:"votes"`
	SongID      string    `json:"song_id"`
	CoverURL    string    `json:"cover_url"`
	Artists     string    `json:"artists"`
	Album       string    `json:"album"`
	Lyric       string    `json:"lyric"`

	// URL is resolved at read time and never stored.
	URL string `json:"url,omitempty"`
}

// NewRequest is the data needed to add a song to the current list.
type NewRequest struct {
	SongName    string
	Grade       string
	ClassName   string
	StudentName string
	SongID      string
	CoverURL    string
	Artists     string
	Album       string
	Lyric       string
}

// SystemStatus holds the global pause switch.
type SystemStatus struct {
	RequestsPaused bool   `json:"requests_paused"`
	PauseReason    string `json:"pause_reason"`
}

// Announcement is the banner shown on the request page.
type Announcement struct {
	Content string `json:"content"`
	Enabled bool   `json:"enabled"`
}

// DailyStats summarises the current list against the daily limit.
type DailyStats struct {
	Count     int `json:"count"`
	Remaining int `json:"remaining"`
	Max       int `json:"max"`
}

// ReviewResult is one moderation verdict. Keys match the reviewer's output.
type ReviewResult struct {
	SongName string `json:"歌曲名称"`
	Passed   *bool  `json:"是否通过,omitempty"`
	Reason   string `json:"原因"`
}

// Approved treats a missing verdict as a pass.
func (r ReviewResult) Approved() bool {
	return r.Passed == nil || *r.Passed
}

// ApplyOutcome reports what applying review results changed.
type ApplyOutcome struct {
	Applied int `json:"applied"`
	Deleted int `json:"deleted"`
}

// DefaultPauseReason is used when the admin gives no reason.
const DefaultPauseReason = "点歌功能已暂停"
