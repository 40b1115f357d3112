package model

import "time"

// DeliveryStatus 投递状态
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// Delivery 用户-视频投递记录
type Delivery struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	UserID  string `gorm:"type:varchar(36);index:idx_delivery_user;uniqueIndex:ux_delivery_user_video;not null"`
	VideoID string `gorm:"type:varchar(32);index:idx_delivery_video;uniqueIndex:ux_delivery_user_video;not null"`
	// 复合唯一键，避免重复 (user, video)
	Status    DeliveryStatus `gorm:"type:varchar(16);index;not null"`
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Delivery) TableName() string { return "deliveries" }
