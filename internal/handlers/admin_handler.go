package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ad/go-telegram-quiz/internal/db"
	"github.com/ad/go-telegram-quiz/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

type AdminHandler struct {
	adminID     int64
	msgMgr      *services.MessageManager
	userRepo    *db.UserRepository
	stats       *services.StatisticsService
	broadcaster *services.Broadcaster
}

func NewAdminHandler(
	adminID int64,
	msgMgr *services.MessageManager,
	userRepo *db.UserRepository,
	stats *services.StatisticsService,
	broadcaster *services.Broadcaster,
) *AdminHandler {
	return &AdminHandler{
		adminID:     adminID,
		msgMgr:      msgMgr,
		userRepo:    userRepo,
		stats:       stats,
		broadcaster: broadcaster,
	}
}

// HandleCommand reports whether the message was one of the admin commands.
// The identity gate comes first: a caller that is not the configured admin
// gets a rejection and nothing else happens.
func (h *AdminHandler) HandleCommand(ctx context.Context, msg *tgmodels.Message) bool {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return false
	}

	cmd := fields[0]
	switch cmd {
	case "/statistics", "/deleteuser", "/broadcast", "/senduser":
	default:
		return false
	}

	if msg.From.ID != h.adminID {
		log.Printf("[ADMIN] unauthorized %s from [%d]", cmd, msg.From.ID)
		rejection := "❌ You are not authorized to use this command."
		if cmd == "/statistics" || cmd == "/deleteuser" {
			rejection = "❌ You are not authorized to view the statistics."
		}
		h.reply(ctx, msg.Chat.ID, rejection)
		return true
	}

	switch cmd {
	case "/statistics":
		h.handleStatistics(ctx, msg.Chat.ID)
	case "/deleteuser":
		h.handleDeleteUser(ctx, msg.Chat.ID, fields[1:])
	case "/broadcast":
		h.handleBroadcast(ctx, msg.Chat.ID, argsAfter(msg.Text, 1))
	case "/senduser":
		h.handleSendUser(ctx, msg.Chat.ID, fields[1:], argsAfter(msg.Text, 2))
	}
	return true
}

func (h *AdminHandler) handleStatistics(ctx context.Context, chatID int64) {
	report, err := h.stats.Report()
	if err != nil {
		h.reply(ctx, chatID, fmt.Sprintf("❌ An error occurred while fetching the statistics: %v", err))
		return
	}
	if report == "" {
		h.reply(ctx, chatID, "No users are registered yet.")
		return
	}

	for _, chunk := range services.ChunkMessage(report, services.MaxMessageLength) {
		h.reply(ctx, chatID, chunk)
	}
}

func (h *AdminHandler) handleDeleteUser(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		h.reply(ctx, chatID, "⚠ Please provide a Telegram ID. Example: /deleteuser 123456789")
		return
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, "⚠ Please provide a Telegram ID. Example: /deleteuser 123456789")
		return
	}

	found, err := h.userRepo.Delete(userID)
	if err != nil {
		h.reply(ctx, chatID, "❌ Failed to delete the user.")
		return
	}
	if found {
		h.reply(ctx, chatID, fmt.Sprintf("✅ User %d deleted successfully.", userID))
	} else {
		h.reply(ctx, chatID, fmt.Sprintf("⚠ User %d not found.", userID))
	}
}

func (h *AdminHandler) handleBroadcast(ctx context.Context, chatID int64, text string) {
	if text == "" {
		h.reply(ctx, chatID, "⚠ Please provide a message. Example: /broadcast This is a test message")
		return
	}

	delivered, failed, err := h.broadcaster.Broadcast(ctx, text)
	if err != nil {
		h.reply(ctx, chatID, "❌ Failed to send the message.")
		return
	}
	if failed > 0 {
		h.reply(ctx, chatID, fmt.Sprintf("✅ Message sent to %d users, %d failed.", delivered, failed))
	} else {
		h.reply(ctx, chatID, "✅ Message sent to all registered users.")
	}
}

func (h *AdminHandler) handleSendUser(ctx context.Context, chatID int64, args []string, text string) {
	if len(args) < 2 || text == "" {
		h.reply(ctx, chatID, "⚠ Please provide a user ID and message. Example: /senduser 123456789 Hello, how are you?")
		return
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, "⚠ Please provide a user ID and message. Example: /senduser 123456789 Hello, how are you?")
		return
	}

	if err := h.broadcaster.SendTo(ctx, userID, text); err != nil {
		h.reply(ctx, chatID, "❌ Failed to send the message.")
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ Message sent to user: %d", userID))
}

func (h *AdminHandler) reply(ctx context.Context, chatID int64, text string) {
	h.msgMgr.SendWithRetry(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

// argsAfter returns the text that follows the first skip whitespace-separated
// tokens, with the original spacing of the remainder preserved.
func argsAfter(text string, skip int) string {
	rest := strings.TrimSpace(text)
	for i := 0; i < skip; i++ {
		idx := strings.IndexAny(rest, " \t\n")
		if idx < 0 {
			return ""
		}
		rest = strings.TrimLeft(rest[idx:], " \t\n")
	}
	return rest
}
