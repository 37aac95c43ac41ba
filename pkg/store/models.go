package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex;not null"`
	Email     string `gorm:"not null"`
	AvatarURL string
	Blocked   datatypes.JSON `gorm:"type:jsonb"`
}

func (UserModel) TableName() string { return "users" }

type ChatModel struct {
	ID        string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ChatModel) TableName() string { return "chats" }

type UserChatModel struct {
	ChatID      string `gorm:"primaryKey"`
	UserID      string `gorm:"primaryKey"`
	ReceiverID  string `gorm:"not null;index"`
	LastMessage string
	IsSeen      bool      `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null;index"`
}

func (UserChatModel) TableName() string { return "user_chats" }

type MessageModel struct {
	ID        string `gorm:"primaryKey"`
	ChatID    string `gorm:"not null;index"`
	SenderID  string `gorm:"not null"`
	Text      string
	ImgURL    string
	CreatedAt time.Time `gorm:"not null;index"`
}

func (MessageModel) TableName() string { return "messages" }

type CredentialModel struct {
	UserID       string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

func (CredentialModel) TableName() string { return "credentials" }
