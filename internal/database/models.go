package database

import (
	"database/sql"
	"time"
)

type User struct {
	UserID           string
	Username         string
	Status           string
	MuteUntil        sql.NullTime
	RemindersEnabled bool
	LastActivity     time.Time
	JoinedAt         time.Time
	WelcomeSent      bool
}

type Warning struct {
	WarningID string
	UserID    string
	Reason    string
	IssuedBy  string
	IssuedAt  time.Time
	Active    bool
}

type Assignment struct {
	AssignmentID string
	Title        string
	Type         string
	Deadline     time.Time
	CreatedBy    string
}

type AssignmentCompletion struct {
	AssignmentID string
	UserID       string
}

type ActivityLog struct {
	UserID    string
	Kind      string
	CreatedAt time.Time
}
