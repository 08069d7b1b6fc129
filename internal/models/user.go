package models

import (
	"fmt"
	"strings"
	"time"
)

// User is one registered quiz participant. Level counts from 1; all
// user-facing text shows Level-1 (the numbering the original course used).
// PollIndex points at the next unanswered question of the current level and
// may equal the question count, meaning the level is exhausted.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	MobileNumber string
	Level        int
	PollIndex    int
	Completed    bool
	CreatedAt    time.Time
}

func (u *User) DisplayName() string {
	var parts []string
	if u.FirstName != "" {
		parts = append(parts, u.FirstName)
	}
	if u.LastName != "" {
		parts = append(parts, u.LastName)
	}
	if u.Username != "" {
		parts = append(parts, fmt.Sprintf("@%s", u.Username))
	}
	parts = append(parts, fmt.Sprintf("[%d]", u.ID))
	return strings.Join(parts, " ")
}
