package model

import "time"

// QueueStatus 处理队列状态
type QueueStatus string

const (
	QueueStatusQueued     QueueStatus = "queued"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusDone       QueueStatus = "done"
	QueueStatusFailed     QueueStatus = "failed"
)

// QueueItem 待摘要/TTS 的视频（video_id 唯一，避免重复入队）
type QueueItem struct {
	VideoID   string      `gorm:"primaryKey;type:varchar(32)"`
	ChannelID string      `gorm:"type:varchar(64);index;not null"`
	URL       string      `gorm:"type:text"`
	Title     string      `gorm:"type:text"`
	Status    QueueStatus `gorm:"type:varchar(16);index;not null"`
	CreatedAt time.Time   `gorm:"index"`
	UpdatedAt time.Time
}

func (QueueItem) TableName() string { return "processing_queue" }
