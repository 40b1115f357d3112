package model

import "time"

// SourceType 订阅来源
type SourceType string

const (
	SourceDirect SourceType = "direct"
	// SourceList 关注频道清单产生的“幽灵”订阅
	SourceList SourceType = "list"
)

// Subscription 用户订阅频道（user_id, channel_id 唯一）
type Subscription struct {
	ID               string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string     `gorm:"type:varchar(36);index:idx_sub_user;uniqueIndex:ux_sub_user_channel;not null" json:"user_id"`
	ChannelID        string     `gorm:"type:varchar(64);index:idx_sub_channel_active,priority:1;uniqueIndex:ux_sub_user_channel;not null" json:"channel_id"`
	ChannelName      string     `gorm:"type:varchar(255)" json:"channel_name"`
	ChannelAvatarURL string     `gorm:"type:text" json:"channel_avatar_url"`
	Active           bool       `gorm:"index:idx_sub_channel_active,priority:2;not null" json:"active"`
	SourceType       SourceType `gorm:"type:varchar(16);not null;default:direct" json:"source_type"`
	ListID           *string    `gorm:"type:varchar(36);index" json:"list_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }
