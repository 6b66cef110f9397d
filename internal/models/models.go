package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Username          string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email             string    `gorm:"index"                    json:"email"`
	DisplayName       string    `json:"displayName"`
	UserPrincipalName string    `gorm:"index"                    json:"userPrincipalName"`
	PasswordHash      string    `json:"-"`
	Role              string    `gorm:"not null"                 json:"role"`
	Approved          bool      `gorm:"default:false"            json:"approved"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasPassword reports whether the account can log in with credentials at all.
// Federated-only accounts carry no hash and must use the Azure AD flow.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

type RefreshToken struct {
	ID            uint       `gorm:"primaryKey"               json:"id"`
	JTI           string     `gorm:"uniqueIndex;not null"     json:"jti"`
	TokenHash     string     `gorm:"uniqueIndex;not null"     json:"-"`
	UserID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"userId"`
	IssuedAt      time.Time  `json:"issuedAt"`
	ExpiresAt     int64      `gorm:"not null"                 json:"expiresAt"`
	Revoked       bool       `gorm:"default:false"            json:"revoked"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
	RevokedByIP   string     `json:"revokedByIp,omitempty"`
	ReasonRevoked string     `json:"reasonRevoked,omitempty"`
}

// Usable reports whether the token may still be presented for refresh.
// Revocation is terminal.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt >= now.Unix()
}

type Application struct {
	ID          uint      `gorm:"primaryKey"           json:"id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"not null"             json:"name"`
	Description string    `json:"description"`
	Active      bool      `gorm:"default:true"         json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Email delivery providers. The platform records status, it never speaks the
// provider protocol itself.
const (
	ProviderO365     = "o365"
	ProviderSMTP     = "smtp"
	ProviderExchange = "exchange"
	ProviderSendGrid = "sendgrid"
)

const (
	EmailQueued = "queued"
	EmailSent   = "sent"
	EmailFailed = "failed"
)

func ValidProvider(p string) bool {
	switch strings.ToLower(p) {
	case ProviderO365, ProviderSMTP, ProviderExchange, ProviderSendGrid:
		return true
	}
	return false
}

func ValidEmailStatus(s string) bool {
	switch strings.ToLower(s) {
	case EmailQueued, EmailSent, EmailFailed:
		return true
	}
	return false
}

type EmailRecord struct {
	ID            uint       `gorm:"primaryKey"     json:"id"`
	ApplicationID uint       `gorm:"index;not null" json:"applicationId"`
	Provider      string     `gorm:"not null"       json:"provider"`
	FromAddress   string     `gorm:"not null"       json:"fromAddress"`
	ToAddresses   string     `gorm:"not null"       json:"toAddresses"`
	CcAddresses   string     `json:"ccAddresses"`
	Subject       string     `json:"subject"`
	Body          string     `json:"body"`
	Status        string     `gorm:"index;not null" json:"status"`
	ErrorDetail   string     `json:"errorDetail,omitempty"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
