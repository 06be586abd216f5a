package store

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID                int64      `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Role              string     `json:"role"`
	Status            string     `json:"status"`
	PasswordHash      string     `json:"-"`
	Salt              string     `json:"-"`
	DateJoined        time.Time  `json:"date_joined"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type SessionRecord struct {
	ID         string
	UserID     int64
	Email      string
	Role       string
	IP         string
	UserAgent  string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
	Revoked    bool
	RevokedAt  *time.Time
	RevokedBy  string
}

type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	BuiltIn     bool      `json:"built_in"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Report is one stored citizen report. Status, ReportType and Severity keep
// the stored labels; core/reports maps them to closed variants.
type Report struct {
	ID            int64
	TrackingCode  string
	Location      string
	Latitude      *decimal.Decimal
	Longitude     *decimal.Decimal
	IncidentDate  *time.Time
	ReportDetails string
	ContactInfo   string
	ReportType    string
	Status        string
	Severity      string
	IsFake        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	CriminalInfos []CriminalInfo
	Attachments   []Attachment
}

type CriminalInfo struct {
	ID          int64  `json:"id"`
	ReportID    int64  `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OtherInfo   string `json:"other_info"`
}

const (
	AttachmentKindFile  = "file"
	AttachmentKindAudio = "audio"
)

type Attachment struct {
	ID           int64     `json:"id"`
	ReportID     int64     `json:"-"`
	Kind         string    `json:"kind"`
	StoredName   string    `json:"-"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	SHA256       string    `json:"sha256"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuditRecord struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
