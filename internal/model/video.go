package model

import "time"

// VideoStatus 视频台账状态
type VideoStatus string

const (
	VideoStatusSkipped    VideoStatus = "skipped"
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// rank 越大越靠后；completed 与 failed 同为终态
func (s VideoStatus) rank() int {
	switch s {
	case VideoStatusSkipped:
		return 0
	case VideoStatusPending:
		return 1
	case VideoStatusProcessing:
		return 2
	case VideoStatusCompleted, VideoStatusFailed:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is part of the ledger vocabulary.
func (s VideoStatus) Valid() bool { return s.rank() >= 0 }

// Terminal reports whether the downstream worker has finished with the video.
func (s VideoStatus) Terminal() bool { return s.rank() == 3 }

// CanAdvanceTo 只允许向前推进，终态不可再变
func (s VideoStatus) CanAdvanceTo(next VideoStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Video 视频台账（每个 video_id 至多一行，与扫描器共享）
type Video struct {
	VideoID    string      `gorm:"primaryKey;type:varchar(32)"`
	ChannelID  string      `gorm:"type:varchar(64);index:idx_video_channel;not null"`
	Title      string      `gorm:"type:text"`
	URL        string      `gorm:"type:text"`
	Status     VideoStatus `gorm:"type:varchar(16);index;not null"`
	SummaryURL string      `gorm:"type:text"`
	AudioURL   string      `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Video) TableName() string { return "videos" }

// WatchURL returns the canonical watch page for a video id.
func WatchURL(videoID string) string { return "https://www.youtube.com/watch?v=" + videoID }
