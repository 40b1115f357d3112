package model

import "time"

// ChannelList 频道清单（可被关注）
type ChannelList struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	OwnerID   string `gorm:"type:varchar(36);index"`
	Name      string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ChannelList) TableName() string { return "channel_lists" }

// ListChannel 清单内的频道
type ListChannel struct {
	ID               string `gorm:"primaryKey;type:varchar(36)"`
	ListID           string `gorm:"type:varchar(36);uniqueIndex:ux_list_channel;not null"`
	ChannelID        string `gorm:"type:varchar(64);uniqueIndex:ux_list_channel;not null"`
	ChannelName      string `gorm:"type:varchar(255)"`
	ChannelAvatarURL string `gorm:"type:text"`
	Position         int
	CreatedAt        time.Time
}

func (ListChannel) TableName() string { return "list_channels" }

// ListFollow 关注关系（用户关注清单）
type ListFollow struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	UserID string `gorm:"type:varchar(36);index:idx_list_follow_user;uniqueIndex:ux_list_follow_pair;not null"`
	ListID string `gorm:"type:varchar(36);uniqueIndex:ux_list_follow_pair;not null"`
	// 复合唯一键，避免重复关注
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ListFollow) TableName() string { return "list_follows" }
