package models

import (
	"regexp"
	"time"
)

// Workflow states of a contact message. Transitions are unconstrained: any
// status may be set at any time, only the replied/resolved timestamps are
// write-once.
const (
	ContactStatusNew      = "new"
	ContactStatusRead     = "read"
	ContactStatusReplied  = "replied"
	ContactStatusResolved = "resolved"
	ContactStatusSpam     = "spam"
)

// Priorities assignable to a contact message.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Submission channels.
const (
	SourceWebsite   = "website"
	SourceMobileApp = "mobile_app"
	SourceAPI       = "api"
)

// ContactStatuses lists every accepted status value.
var ContactStatuses = []string{
	ContactStatusNew,
	ContactStatusRead,
	ContactStatusReplied,
	ContactStatusResolved,
	ContactStatusSpam,
}

// ValidContactStatus reports whether s is an accepted status.
func ValidContactStatus(s string) bool {
	for _, v := range ContactStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is an accepted priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

// ValidEmail reports whether addr looks like a deliverable address.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Name         string        `gorm:"size:100;not null" json:"name"`
	Email        string        `gorm:"size:255;not null;index" json:"email"`
	Company      string        `gorm:"size:100" json:"company"`
	Subject      string        `gorm:"size:200;not null" json:"subject"`
	Message      string        `gorm:"size:2000;not null" json:"message"`
	Status       string        `gorm:"size:16;default:'new';index" json:"status"`
	Priority     string        `gorm:"size:16;default:'medium';index" json:"priority"`
	AssignedToID *uint         `json:"assignedToId"`
	AssignedTo   *User         `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	IPAddress    string        `gorm:"size:45" json:"ipAddress"`
	UserAgent    string        `gorm:"size:512" json:"userAgent"`
	Source       string        `gorm:"size:16;default:'website'" json:"source"`
	Tags         []string      `gorm:"serializer:json" json:"tags"`
	Notes        []ContactNote `gorm:"constraint:OnDelete:CASCADE;" json:"notes"`
	RepliedAt    *time.Time    `json:"repliedAt"`
	ResolvedAt   *time.Time    `json:"resolvedAt"`
	CreatedAt    time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ContactNote is an internal, append-only annotation on a contact message.
type ContactNote struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ContactMessageID uint      `gorm:"index;not null" json:"-"`
	Content          string    `gorm:"type:text;not null" json:"content"`
	AddedByID        uint      `gorm:"not null" json:"addedById"`
	AddedBy          User      `gorm:"foreignKey:AddedByID" json:"addedBy"`
	AddedAt          time.Time `json:"addedAt"`
}

// ApplyStatusTimestamps stamps RepliedAt/ResolvedAt the first time the
// message reaches the corresponding status. Later transitions through the
// same status leave the original timestamps untouched.
func ApplyStatusTimestamps(msg *ContactMessage, now time.Time) {
	if msg.Status == ContactStatusReplied && msg.RepliedAt == nil {
		t := now
		msg.RepliedAt = &t
	}
	if msg.Status == ContactStatusResolved && msg.ResolvedAt == nil {
		t := now
		msg.ResolvedAt = &t
	}
}
