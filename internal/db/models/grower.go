package models

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// Grower represents a hydroponic grower account. The account itself is
// provisioned by the external identity provider; this record carries the
// pieces the alerting core needs: the external UID and, once the Telegram
// handshake has completed, the chat id alerts are delivered to.
type Grower struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UID       string         `gorm:"uniqueIndex;not null" json:"uid"`
	Email     string         `gorm:"uniqueIndex" json:"email"`
	Name      string         `json:"name"`
	// TelegramChatID is zero until the grower completes the /start
	// handshake with the bot.
	TelegramChatID int64          `json:"telegram_chat_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasTelegramChannel reports whether alerts can be delivered to this grower
func (g *Grower) HasTelegramChannel() bool {
	return g.TelegramChatID != 0
}

// Claims represents the JWT claims for authentication
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken generates a JWT token for the grower
func (g *Grower) GenerateToken(secretKey string, expirationHours int) (string, error) {
	if secretKey == "" {
		return "", errors.New("empty JWT secret key")
	}

	expirationTime := time.Now().Add(time.Duration(expirationHours) * time.Hour)
	claims := &Claims{
		UID:   g.UID,
		Email: g.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "hidroweb",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}
