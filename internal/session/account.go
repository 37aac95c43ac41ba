package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"connectly/pkg/domain"
	"connectly/pkg/storage"
)

const minPasswordLen = 6

var ErrPasswordTooShort = errors.New("session: password should be at least 6 characters")

// RegisterParams carries the registration form. Avatar is optional; when
// set, AvatarName and AvatarSize describe the upload.
type RegisterParams struct {
	Username   string
	Email      string
	Password   string
	Avatar     io.Reader
	AvatarName string
	AvatarSize int64
}

// Login signs in with email and password and refreshes the principal.
// Auth failures (auth.ErrInvalidCredentials) surface to the caller.
func (s *Session) Login(email, password string) error {
	if _, err := s.auth.SignInWithPassword(email, password); err != nil {
		return err
	}
	s.Refresh()
	return nil
}

// Register creates the auth record, uploads the avatar if given, then
// writes the profile row. The auth record and the profile row are two
// separate writes with no shared transaction: an upload or profile failure
// leaves a credential without a profile row.
func (s *Session) Register(ctx context.Context, blobs storage.Blobs, p RegisterParams) error {
	if len(p.Password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	sess, err := s.auth.SignUp(p.Email, p.Password)
	if err != nil {
		return err
	}

	avatarURL := ""
	if p.Avatar != nil {
		url, err := blobs.Put(ctx, storage.AttachmentKey(p.AvatarName), p.Avatar, p.AvatarSize, "")
		if err != nil {
			return fmt.Errorf("upload avatar: %w", err)
		}
		avatarURL = url
	}

	user := domain.User{
		ID:        sess.UserID,
		Username:  p.Username,
		Email:     p.Email,
		AvatarURL: avatarURL,
		Blocked:   []string{},
	}
	if err := s.users.SaveUser(user); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.Refresh()
	return nil
}
