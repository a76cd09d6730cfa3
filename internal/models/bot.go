package models

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	passwordLength   = 12
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Bot is an automated account registered with the admin API
type Bot struct {
	ID          string   `json:"id,omitempty"`
	Platform    Platform `json:"platform"`
	Gender      Gender   `json:"gender"`
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	AccessToken string   `json:"access_token"`
	IsActive    bool     `json:"is_active"`
	IsInUse     bool     `json:"is_in_use"`
}

// NewBot returns a bot with the form defaults
func NewBot() Bot {
	return Bot{
		Platform: PlatformTelegram,
		Gender:   GenderMale,
		IsActive: true,
	}
}

// Validate checks the fields the API requires
func (b Bot) Validate() error {
	var errs []error
	if !b.Platform.Valid() {
		errs = append(errs, errors.New("unknown platform "+string(b.Platform)))
	}
	if !b.Gender.Valid() {
		errs = append(errs, errors.New("unknown gender "+string(b.Gender)))
	}
	if strings.TrimSpace(b.Username) == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if b.Password == "" {
		errs = append(errs, errors.New("password is required"))
	}
	return errors.Join(errs...)
}

// GeneratePassword returns a random lowercase alphanumeric password
func GeneratePassword() (string, error) {
	var b strings.Builder
	n := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < passwordLength; i++ {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
