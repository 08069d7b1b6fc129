package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ad/go-telegram-quiz/internal/catalog"
	"github.com/ad/go-telegram-quiz/internal/db"
	"github.com/ad/go-telegram-quiz/internal/fsm"
	"github.com/ad/go-telegram-quiz/internal/models"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// DefaultVideoDelay is the pacing pause between a level's video and its
// first question. Purely cosmetic, not a correctness requirement.
const DefaultVideoDelay = 10 * time.Second

const defaultFinalMessage = "That's all the levels for now 😜 We'll upload the next one soon.\n\nSend /start once a new level is available."

// ProgressionEngine decides what a user gets next: the level video, the
// next quiz poll, the level-complete prompt, or the terminal notice.
type ProgressionEngine struct {
	catalog    *catalog.Catalog
	users      *db.UserRepository
	settings   *db.SettingsRepository
	msgMgr     *MessageManager
	sched      Scheduler
	videoDelay time.Duration
}

func NewProgressionEngine(
	cat *catalog.Catalog,
	users *db.UserRepository,
	settings *db.SettingsRepository,
	msgMgr *MessageManager,
	sched Scheduler,
	videoDelay time.Duration,
) *ProgressionEngine {
	return &ProgressionEngine{
		catalog:    cat,
		users:      users,
		settings:   settings,
		msgMgr:     msgMgr,
		sched:      sched,
		videoDelay: videoDelay,
	}
}

// BeginSession starts the user's current level: video first when the level
// has one, then the first unanswered question after the pacing delay.
func (e *ProgressionEngine) BeginSession(ctx context.Context, user *models.User) error {
	level, ok := e.catalog.Get(user.Level)
	if !ok || level.Video == "" {
		return e.DispatchNextQuestion(ctx, user)
	}

	e.msgMgr.SendPhotoWithRetry(ctx, &bot.SendPhotoParams{
		ChatID:  user.ID,
		Photo:   &tgmodels.InputFileString{Data: level.Thumbnail},
		Caption: fmt.Sprintf("📹 Watch this video carefully, the Level %d quiz starts right after.", user.Level-1),
		ReplyMarkup: &tgmodels.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
				{{Text: "Watch Video", URL: level.Video}},
			},
		},
	})

	userID := user.ID
	e.sched.AfterFunc(e.videoDelay, func() {
		// Re-fetch: the user may have switched levels while the timer ran.
		u, err := e.users.GetByID(userID)
		if err != nil || u == nil {
			return
		}
		e.DispatchNextQuestion(ctx, u)
	})

	return nil
}

// DispatchNextQuestion sends the poll at the user's current index, or, when
// the level is exhausted, exactly one of: the level-complete prompt (a
// higher level exists) or the terminal completion notice (it does not).
func (e *ProgressionEngine) DispatchNextQuestion(ctx context.Context, user *models.User) error {
	questions := e.catalog.Questions(user.Level)

	state := fsm.Resolve(user.PollIndex, len(questions), false, user.Level < e.catalog.MaxLevel(), user.Completed)
	log.Printf("[ENGINE] user=%d level=%d index=%d state=%s", user.ID, user.Level, user.PollIndex, state)

	if user.PollIndex < len(questions) {
		q := questions[user.PollIndex]
		options := make([]tgmodels.InputPollOption, len(q.Options))
		for i, o := range q.Options {
			options[i] = tgmodels.InputPollOption{Text: o}
		}
		e.msgMgr.SendPollWithRetry(ctx, &bot.SendPollParams{
			ChatID:          user.ID,
			Question:        q.Prompt,
			Options:         options,
			Type:            "quiz",
			CorrectOptionID: q.CorrectIndex,
			IsAnonymous:     bot.False(),
		})
		return nil
	}

	if user.Level < e.catalog.MaxLevel() {
		e.msgMgr.SendWithRetry(ctx, &bot.SendMessageParams{
			ChatID: user.ID,
			Text:   fmt.Sprintf("🎉 You completed Level %d!", user.Level-1),
			ReplyMarkup: &tgmodels.InlineKeyboardMarkup{
				InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
					{
						{Text: "Next Level", CallbackData: fmt.Sprintf("continue_%d", user.Level+1)},
						{Text: "Change Level", CallbackData: "change_level"},
					},
				},
			},
		})
		return nil
	}

	user.Completed = true
	if err := e.users.Save(user); err != nil {
		return err
	}

	finalMsg := defaultFinalMessage
	settings, _ := e.settings.GetAll()
	if settings != nil && settings.FinalMessage != "" {
		finalMsg = settings.FinalMessage
	}
	e.msgMgr.SendWithRetry(ctx, &bot.SendMessageParams{
		ChatID: user.ID,
		Text:   finalMsg,
	})
	return nil
}

// OnAnswer advances the user iff the selected option is the correct one,
// then dispatches again. A wrong answer is never called out; the redispatch
// just repeats the current question, since a quiz poll only accepts one
// vote. Answers arriving after the level is exhausted are ignored.
func (e *ProgressionEngine) OnAnswer(ctx context.Context, user *models.User, selectedOption int) error {
	questions := e.catalog.Questions(user.Level)
	if user.PollIndex >= len(questions) {
		return nil
	}

	if selectedOption == questions[user.PollIndex].CorrectIndex {
		user.PollIndex++
		if err := e.users.Save(user); err != nil {
			return err
		}
	}

	return e.DispatchNextQuestion(ctx, user)
}

// OnLevelSelect jumps the user to the requested level and restarts the
// session there. The level is not validated against the catalog: a number
// past the end falls into DispatchNextQuestion's terminal branch.
func (e *ProgressionEngine) OnLevelSelect(ctx context.Context, user *models.User, level int) error {
	user.Level = level
	user.PollIndex = 0
	if err := e.users.Save(user); err != nil {
		return err
	}
	return e.BeginSession(ctx, user)
}
