package services

import (
	"context"
	"log"

	"github.com/ad/go-telegram-quiz/internal/db"
	"github.com/go-telegram/bot"
)

type Broadcaster struct {
	users  *db.UserRepository
	msgMgr *MessageManager
}

func NewBroadcaster(users *db.UserRepository, msgMgr *MessageManager) *Broadcaster {
	return &Broadcaster{users: users, msgMgr: msgMgr}
}

// Broadcast sends text to every registered user sequentially. A failure for
// one recipient is logged and does not abort the rest.
func (b *Broadcaster) Broadcast(ctx context.Context, text string) (delivered, failed int, err error) {
	users, err := b.users.GetAll()
	if err != nil {
		return 0, 0, err
	}

	for _, u := range users {
		if _, err := b.msgMgr.SendWithRetry(ctx, &bot.SendMessageParams{
			ChatID: u.ID,
			Text:   "📢 Announcement:\n\n" + text,
		}); err != nil {
			log.Printf("[BROADCAST] failed to send to %s: %v", u.DisplayName(), err)
			failed++
			continue
		}
		delivered++
	}
	return delivered, failed, nil
}

// SendTo delivers text to a single user id; the id does not have to belong
// to a registered user.
func (b *Broadcaster) SendTo(ctx context.Context, userID int64, text string) error {
	_, err := b.msgMgr.SendWithRetry(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   "📩 Message:\n\n" + text,
	})
	return err
}
