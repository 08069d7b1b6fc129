package services

import (
	"fmt"
	"strings"

	"github.com/ad/go-telegram-quiz/internal/db"
)

// MaxMessageLength is Telegram's hard ceiling for one text message.
const MaxMessageLength = 4096

type StatisticsService struct {
	users *db.UserRepository
}

func NewStatisticsService(users *db.UserRepository) *StatisticsService {
	return &StatisticsService{users: users}
}

// Report builds the admin statistics body: totals plus one detail block per
// user. "Levels Completed" shows the stored level minus one, matching every
// other user-facing level number. Returns "" when no users are registered.
func (s *StatisticsService) Report() (string, error) {
	users, err := s.users.GetAll()
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", nil
	}

	completed := 0
	for _, u := range users {
		if u.Completed {
			completed++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total Users: %d\n", len(users))
	fmt.Fprintf(&sb, "Total Levels Completed: %d\n", completed)
	sb.WriteString("\nUser Details:\n")

	for _, u := range users {
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		username := "N/A"
		if u.Username != "" {
			username = "@" + u.Username
		}
		mobile := u.MobileNumber
		if mobile == "" {
			mobile = "Not provided"
		}

		fmt.Fprintf(&sb, "Name: %s\n", name)
		fmt.Fprintf(&sb, "Username: %s\n", username)
		fmt.Fprintf(&sb, "Telegram ID: %d\n", u.ID)
		fmt.Fprintf(&sb, "Mobile Number: %s\n", mobile)
		fmt.Fprintf(&sb, "Levels Completed: %d\n", u.Level-1)
		sb.WriteString("-------------------------\n")
	}

	return sb.String(), nil
}

// ChunkMessage splits body on exact max boundaries, preserving order.
// Concatenating the chunks reproduces the body byte for byte.
func ChunkMessage(body string, max int) []string {
	if body == "" {
		return nil
	}

	var chunks []string
	for len(body) > max {
		chunks = append(chunks, body[:max])
		body = body[max:]
	}
	return append(chunks, body)
}
