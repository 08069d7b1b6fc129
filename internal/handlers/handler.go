package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ad/go-telegram-quiz/internal/catalog"
	"github.com/ad/go-telegram-quiz/internal/db"
	"github.com/ad/go-telegram-quiz/internal/models"
	"github.com/ad/go-telegram-quiz/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

const defaultWelcomeMessage = "Welcome to the quiz! Please provide your mobile number:"

type BotHandler struct {
	transport    services.Transport
	adminID      int64
	catalog      *catalog.Catalog
	userRepo     *db.UserRepository
	settingsRepo *db.SettingsRepository
	errorManager *services.ErrorManager
	msgManager   *services.MessageManager
	engine       *services.ProgressionEngine
	adminHandler *AdminHandler
}

func NewBotHandler(
	t services.Transport,
	adminID int64,
	cat *catalog.Catalog,
	userRepo *db.UserRepository,
	settingsRepo *db.SettingsRepository,
	errorManager *services.ErrorManager,
	msgManager *services.MessageManager,
	engine *services.ProgressionEngine,
	statsService *services.StatisticsService,
	broadcaster *services.Broadcaster,
) *BotHandler {
	adminHandler := NewAdminHandler(adminID, msgManager, userRepo, statsService, broadcaster)

	return &BotHandler{
		transport:    t,
		adminID:      adminID,
		catalog:      cat,
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		errorManager: errorManager,
		msgManager:   msgManager,
		engine:       engine,
		adminHandler: adminHandler,
	}
}

func (h *BotHandler) HandleUpdate(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	defer h.recoverPanic(ctx, update)

	if update.Message != nil {
		h.handleMessage(ctx, update.Message)
	} else if update.PollAnswer != nil {
		h.handlePollAnswer(ctx, update.PollAnswer)
	} else if update.CallbackQuery != nil {
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *BotHandler) recoverPanic(ctx context.Context, update *tgmodels.Update) {
	if r := recover(); r != nil {
		h.errorManager.NotifyAdmin(ctx, r, update)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *tgmodels.Message) {
	if msg.From == nil {
		return
	}

	text := strings.TrimSpace(msg.Text)

	if text == "/start" {
		h.handleStart(ctx, msg)
		return
	}

	// Admin commands gate on the caller's identity themselves, so that a
	// non-admin gets a visible rejection instead of silence.
	if h.adminHandler.HandleCommand(ctx, msg) {
		return
	}

	if text != "" {
		h.handleMobileNumber(ctx, msg)
	}
}

func (h *BotHandler) handleStart(ctx context.Context, msg *tgmodels.Message) {
	user, err := h.userRepo.GetByID(msg.From.ID)
	if err != nil {
		h.sendError(ctx, msg.Chat.ID, "Failed to look up your progress")
		return
	}

	if user == nil {
		user = &models.User{
			ID:        msg.From.ID,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
			Username:  msg.From.Username,
			Level:     1,
			PollIndex: 0,
		}
		if err := h.userRepo.Create(user); err != nil {
			h.sendError(ctx, msg.Chat.ID, "Failed to register you, please try again")
			return
		}

		welcomeMsg := defaultWelcomeMessage
		settings, _ := h.settingsRepo.GetAll()
		if settings != nil && settings.WelcomeMessage != "" {
			welcomeMsg = settings.WelcomeMessage
		}
		h.msgManager.SendWithRetry(ctx, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   welcomeMsg,
		})
	} else {
		h.msgManager.SendWithRetry(ctx, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   fmt.Sprintf("Welcome back! Resuming Level %d.", user.Level-1),
		})
	}

	if err := h.engine.BeginSession(ctx, user); err != nil {
		h.sendError(ctx, msg.Chat.ID, "Failed to start the level")
	}
}

// handleMobileNumber stores the first free-text message of a registered
// user as their mobile number. Once set it is never overwritten.
func (h *BotHandler) handleMobileNumber(ctx context.Context, msg *tgmodels.Message) {
	user, err := h.userRepo.GetByID(msg.From.ID)
	if err != nil || user == nil {
		return
	}
	if user.MobileNumber != "" {
		return
	}

	user.MobileNumber = msg.Text
	if err := h.userRepo.Save(user); err != nil {
		h.sendError(ctx, msg.Chat.ID, "Failed to save your mobile number")
		return
	}

	h.msgManager.SendWithRetry(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   "Thank you! Your mobile number has been saved.",
	})
}

func (h *BotHandler) handlePollAnswer(ctx context.Context, answer *tgmodels.PollAnswer) {
	if answer.User == nil || len(answer.OptionIDs) == 0 {
		return
	}

	user, err := h.userRepo.GetByID(answer.User.ID)
	if err != nil || user == nil {
		return
	}

	if err := h.engine.OnAnswer(ctx, user, answer.OptionIDs[0]); err != nil {
		h.sendError(ctx, user.ID, "Failed to record your answer")
	}
}

func (h *BotHandler) handleCallback(ctx context.Context, callback *tgmodels.CallbackQuery) {
	defer h.transport.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
	})

	userID := callback.From.ID
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		h.sendError(ctx, userID, "Failed to look up your progress")
		return
	}
	if user == nil {
		h.msgManager.SendWithRetry(ctx, &bot.SendMessageParams{
			ChatID: userID,
			Text:   "Please start the bot first using /start.",
		})
		return
	}

	data := callback.Data
	switch {
	case strings.HasPrefix(data, "continue_"):
		level, err := strconv.Atoi(strings.TrimPrefix(data, "continue_"))
		if err != nil {
			return
		}
		h.msgManager.SendWithRetry(ctx, &bot.SendMessageParams{
			ChatID: userID,
			Text:   fmt.Sprintf("🎯 Starting Level %d!", level-1),
		})
		if err := h.engine.OnLevelSelect(ctx, user, level); err != nil {
			h.sendError(ctx, userID, "Failed to switch level")
		}

	case data == "change_level":
		h.sendLevelPicker(ctx, userID)

	case strings.HasPrefix(data, "change_to_"):
		level, err := strconv.Atoi(strings.TrimPrefix(data, "change_to_"))
		if err != nil {
			return
		}
		h.msgManager.SendWithRetry(ctx, &bot.SendMessageParams{
			ChatID: userID,
			Text:   fmt.Sprintf("🔄 Switched to Level %d!", level-1),
		})
		if err := h.engine.OnLevelSelect(ctx, user, level); err != nil {
			h.sendError(ctx, userID, "Failed to switch level")
		}
	}
	// Any other token is ignored.
}

func (h *BotHandler) sendLevelPicker(ctx context.Context, userID int64) {
	var rows [][]tgmodels.InlineKeyboardButton
	var row []tgmodels.InlineKeyboardButton
	for _, n := range h.catalog.Numbers() {
		row = append(row, tgmodels.InlineKeyboardButton{
			Text:         fmt.Sprintf("L-%d", n-1),
			CallbackData: fmt.Sprintf("change_to_%d", n),
		})
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	h.msgManager.SendWithRetry(ctx, &bot.SendMessageParams{
		ChatID:      userID,
		Text:        "Select a level to change to:",
		ReplyMarkup: &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
}

func (h *BotHandler) sendError(ctx context.Context, chatID int64, text string) {
	h.msgManager.SendWithRetry(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "⚠️ " + text,
	})
}
