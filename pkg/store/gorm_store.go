package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"connectly/pkg/domain"
)

// GormStore implements Store and CredentialStore using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&ChatModel{},
		&UserChatModel{},
		&MessageModel{},
		&CredentialModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser inserts or replaces a profile row.
func (s *GormStore) SaveUser(u domain.User) error {
	model, err := userToModel(u)
	if err != nil {
		return err
	}
	if err := s.db.Save(&model).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// GetUserByID fetches a profile row by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	err := s.db.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get user: %w", err)
	}
	user, err := userFromModel(model)
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// GetUserByUsername fetches a profile row by exact username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	err := s.db.First(&model, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get user by username: %w", err)
	}
	user, err := userFromModel(model)
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// SetBlocked replaces a user's block list.
func (s *GormStore) SetBlocked(userID string, blocked []string) error {
	raw, err := blockedToJSON(blocked)
	if err != nil {
		return err
	}
	res := s.db.Model(&UserModel{}).Where("id = ?", userID).Update("blocked", raw)
	if res.Error != nil {
		return fmt.Errorf("set blocked: %w", res.Error)
	}
	return nil
}

// CreateChat inserts a chat row.
func (s *GormStore) CreateChat(c domain.Chat) error {
	model := ChatModel{ID: c.ID, CreatedAt: c.CreatedAt}
	if err := s.db.Create(&model).Error; err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

// CreateDirectoryEntry inserts one participant's side of a chat.
func (s *GormStore) CreateDirectoryEntry(e domain.DirectoryEntry) error {
	model := UserChatModel{
		ChatID:      e.ChatID,
		UserID:      e.UserID,
		ReceiverID:  e.ReceiverID,
		LastMessage: e.LastMessage,
		IsSeen:      e.Seen,
		UpdatedAt:   e.UpdatedAt,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return fmt.Errorf("create directory entry: %w", err)
	}
	return nil
}

// ListDirectory returns the owner's entries, most recently updated first,
// with each receiver's profile joined in.
func (s *GormStore) ListDirectory(ownerID string) ([]domain.DirectoryEntry, error) {
	var rows []UserChatModel
	if err := s.db.Where("user_id = ?", ownerID).Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	if len(rows) == 0 {
		return []domain.DirectoryEntry{}, nil
	}

	peerIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		peerIDs = append(peerIDs, row.ReceiverID)
	}
	var peerModels []UserModel
	if err := s.db.Where("id IN ?", peerIDs).Find(&peerModels).Error; err != nil {
		return nil, fmt.Errorf("load peers: %w", err)
	}
	peers := make(map[string]domain.User, len(peerModels))
	for _, model := range peerModels {
		user, err := userFromModel(model)
		if err != nil {
			return nil, err
		}
		peers[user.ID] = user
	}

	entries := make([]domain.DirectoryEntry, 0, len(rows))
	for _, row := range rows {
		entry := domain.DirectoryEntry{
			ChatID:      row.ChatID,
			UserID:      row.UserID,
			ReceiverID:  row.ReceiverID,
			LastMessage: row.LastMessage,
			Seen:        row.IsSeen,
			UpdatedAt:   row.UpdatedAt,
		}
		if peer, ok := peers[row.ReceiverID]; ok {
			p := peer
			entry.Peer = &p
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SetSeen updates the seen flag on one participant's entry.
func (s *GormStore) SetSeen(chatID, ownerID string, seen bool) error {
	res := s.db.Model(&UserChatModel{}).
		Where("chat_id = ? AND user_id = ?", chatID, ownerID).
		Update("is_seen", seen)
	if res.Error != nil {
		return fmt.Errorf("set seen: %w", res.Error)
	}
	return nil
}

// TouchConversation rewrites both participants' entries in one transaction,
// so the directory never shows the new preview on only one side.
func (s *GormStore) TouchConversation(chatID, senderID, receiverID, lastMessage string, at time.Time) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sides := []struct {
			ownerID string
			seen    bool
		}{
			{senderID, true},
			{receiverID, false},
		}
		for _, side := range sides {
			res := tx.Model(&UserChatModel{}).
				Where("chat_id = ? AND user_id = ?", chatID, side.ownerID).
				Updates(map[string]any{
					"last_message": lastMessage,
					"is_seen":      side.seen,
					"updated_at":   at,
				})
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// AppendMessage inserts a message row.
func (s *GormStore) AppendMessage(m domain.Message) error {
	model := MessageModel{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		ImgURL:    m.AttachmentURL,
		CreatedAt: m.CreatedAt,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// ListMessages returns a chat's messages in creation order.
func (s *GormStore) ListMessages(chatID string) ([]domain.Message, error) {
	var rows []MessageModel
	if err := s.db.Where("chat_id = ?", chatID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	messages := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, domain.Message{
			ID:            row.ID,
			ChatID:        row.ChatID,
			SenderID:      row.SenderID,
			Text:          row.Text,
			AttachmentURL: row.ImgURL,
			CreatedAt:     row.CreatedAt,
		})
	}
	return messages, nil
}

// SaveCredentials stores the auth provider's record for a user.
func (s *GormStore) SaveCredentials(userID, email, passwordHash string) error {
	model := CredentialModel{UserID: userID, Email: email, PasswordHash: passwordHash}
	if err := s.db.Create(&model).Error; err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// GetCredentialsByEmail resolves an email to its credential record.
func (s *GormStore) GetCredentialsByEmail(email string) (string, string, bool, error) {
	var model CredentialModel
	err := s.db.First(&model, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("get credentials: %w", err)
	}
	return model.UserID, model.PasswordHash, true, nil
}

func userToModel(u domain.User) (UserModel, error) {
	raw, err := blockedToJSON(u.Blocked)
	if err != nil {
		return UserModel{}, err
	}
	return UserModel{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Blocked:   raw,
	}, nil
}

func userFromModel(m UserModel) (domain.User, error) {
	blocked := []string{}
	if len(m.Blocked) > 0 {
		if err := json.Unmarshal(m.Blocked, &blocked); err != nil {
			return domain.User{}, fmt.Errorf("decode blocked list: %w", err)
		}
	}
	return domain.User{
		ID:        m.ID,
		Username:  m.Username,
		Email:     m.Email,
		AvatarURL: m.AvatarURL,
		Blocked:   blocked,
	}, nil
}

// blockedToJSON always encodes a present JSON array; a nil input becomes
// [] so a stored profile never loses its block list.
func blockedToJSON(blocked []string) (datatypes.JSON, error) {
	if blocked == nil {
		blocked = []string{}
	}
	raw, err := json.Marshal(blocked)
	if err != nil {
		return nil, fmt.Errorf("encode blocked list: %w", err)
	}
	return datatypes.JSON(raw), nil
}
