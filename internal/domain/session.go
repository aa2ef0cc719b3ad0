package domain

import "time"

type Platform string

const (
	PlatformWeb     Platform = "WEB"
	PlatformIOS     Platform = "IOS"
	PlatformAndroid Platform = "ANDROID"
)

// ParsePlatform validates a client-supplied platform tag.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformWeb, PlatformIOS, PlatformAndroid:
		return Platform(s), nil
	}
	return "", ErrUnknownPlatform
}

// Session binds one access/refresh token pair to a user. It is the unit of
// revocation: a refresh replaces the row, a logout deletes it.
type Session struct {
	ID           SessionID `gorm:"type:uuid;primaryKey" db:"id"`
	UserID       UserID    `gorm:"type:uuid;index;not null" db:"user_id"`
	AccessToken  string    `gorm:"type:text;uniqueIndex:ux_sessions_access_token" db:"access_token"`
	RefreshToken string    `gorm:"type:text;index" db:"refresh_token"`
	Platform     Platform  `gorm:"type:varchar(20);not null" db:"platform"`
	IPAddress    string    `gorm:"type:inet" db:"ip_address"`
	UserAgent    string    `gorm:"type:text" db:"user_agent"`
	CreatedAt    time.Time `gorm:"not null" db:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" db:"updated_at"`
}

func (Session) TableName() string { return "sessions" }
