package localstore

import (
	"errors"
	"strconv"
)

// Setting keys for session identity and preferences.
const (
	keyAuthToken = "auth_token"
	keyUserID    = "user_id"
	keyUsername  = "username"
	keyRole      = "role"
	keyDarkMode  = "dark_mode"
)

// Session is the persisted identity of the signed-in user.
type Session struct {
	Token    string
	UserID   string
	Username string
	Role     string
}

// SaveSession persists the signed-in user's identity.
func (s *Store) SaveSession(sess Session) error {
	if sess.Token == "" || sess.UserID == "" {
		return errors.New("session token and user id are required")
	}
	for key, value := range map[string]string{
		keyAuthToken: sess.Token,
		keyUserID:    sess.UserID,
		keyUsername:  sess.Username,
		keyRole:      sess.Role,
	} {
		if err := s.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Session returns the persisted session, or ErrNotFound when signed out.
func (s *Store) Session() (Session, error) {
	token, err := s.Get(keyAuthToken)
	if err != nil {
		return Session{}, err
	}
	userID, err := s.Get(keyUserID)
	if err != nil {
		return Session{}, err
	}
	username, _ := s.Get(keyUsername)
	role, _ := s.Get(keyRole)
	return Session{Token: token, UserID: userID, Username: username, Role: role}, nil
}

// Token returns the persisted bearer token, or "" when signed out. Used as
// the backend client's token source.
func (s *Store) Token() string {
	token, err := s.Get(keyAuthToken)
	if err != nil {
		return ""
	}
	return token
}

// ClearSession removes all persisted identity fields.
func (s *Store) ClearSession() error {
	for _, key := range []string{keyAuthToken, keyUserID, keyUsername, keyRole} {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// SetDarkMode persists the dark-mode preference.
func (s *Store) SetDarkMode(enabled bool) error {
	return s.Set(keyDarkMode, strconv.FormatBool(enabled))
}

// DarkMode returns the dark-mode preference, defaulting to false.
func (s *Store) DarkMode() bool {
	value, err := s.Get(keyDarkMode)
	if err != nil {
		return false
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return enabled
}
