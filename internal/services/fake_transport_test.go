package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ad/go-telegram-quiz/internal/catalog"
	"github.com/ad/go-telegram-quiz/internal/db"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	_ "modernc.org/sqlite"
)

// fakeTransport records every outbound send. Sends to chat ids listed in
// failFor always fail, which also routes the admin failure report through
// the same fake.
type fakeTransport struct {
	messages []*bot.SendMessageParams
	photos   []*bot.SendPhotoParams
	polls    []*bot.SendPollParams
	answered []string
	failFor  map[int64]bool
	nextID   int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failFor: map[int64]bool{}}
}

func chatIDOf(v interface{}) int64 {
	id, _ := v.(int64)
	return id
}

func (f *fakeTransport) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	if f.failFor[chatIDOf(params.ChatID)] {
		return nil, errors.New("forbidden: bot was blocked by the user")
	}
	f.messages = append(f.messages, params)
	f.nextID++
	return &tgmodels.Message{ID: f.nextID}, nil
}

func (f *fakeTransport) SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*tgmodels.Message, error) {
	if f.failFor[chatIDOf(params.ChatID)] {
		return nil, errors.New("forbidden: bot was blocked by the user")
	}
	f.photos = append(f.photos, params)
	f.nextID++
	return &tgmodels.Message{ID: f.nextID}, nil
}

func (f *fakeTransport) SendPoll(ctx context.Context, params *bot.SendPollParams) (*tgmodels.Message, error) {
	if f.failFor[chatIDOf(params.ChatID)] {
		return nil, errors.New("forbidden: bot was blocked by the user")
	}
	f.polls = append(f.polls, params)
	f.nextID++
	return &tgmodels.Message{ID: f.nextID}, nil
}

func (f *fakeTransport) AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	f.answered = append(f.answered, params.CallbackQueryID)
	return true, nil
}

func (f *fakeTransport) messagesTo(chatID int64) []*bot.SendMessageParams {
	var out []*bot.SendMessageParams
	for _, m := range f.messages {
		if chatIDOf(m.ChatID) == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) pollsTo(chatID int64) []*bot.SendPollParams {
	var out []*bot.SendPollParams
	for _, p := range f.polls {
		if chatIDOf(p.ChatID) == chatID {
			out = append(out, p)
		}
	}
	return out
}

// inlineButtons flattens an inline keyboard into a single button slice.
func inlineButtons(t *testing.T, markup tgmodels.ReplyMarkup) []tgmodels.InlineKeyboardButton {
	t.Helper()
	kb, ok := markup.(*tgmodels.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard, got %T", markup)
	}
	var out []tgmodels.InlineKeyboardButton
	for _, row := range kb.InlineKeyboard {
		out = append(out, row...)
	}
	return out
}

// manualScheduler collects scheduled continuations so tests fire the pacing
// delay deterministically.
type manualScheduler struct {
	fns      []func()
	canceled int
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) func() {
	i := len(s.fns)
	s.fns = append(s.fns, fn)
	return func() {
		if s.fns[i] != nil {
			s.fns[i] = nil
			s.canceled++
		}
	}
}

func (s *manualScheduler) Fire() {
	for i, fn := range s.fns {
		if fn != nil {
			s.fns[i] = nil
			fn()
		}
	}
}

func (s *manualScheduler) Pending() int {
	n := 0
	for _, fn := range s.fns {
		if fn != nil {
			n++
		}
	}
	return n
}

var testDBCounter int64

func setupTestQueue(t *testing.T) (*db.DBQueue, func()) {
	t.Helper()
	name := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	sqlDB, err := sql.Open("sqlite", name)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.InitSchema(sqlDB); err != nil {
		t.Fatal(err)
	}
	queue := db.NewDBQueue(sqlDB)
	return queue, func() {
		queue.Close()
		sqlDB.Close()
	}
}

// Four levels: 1 has a video and two questions, 2 has one question and no
// video, 3 has a video but no questions, 4 is the last level.
func testCatalog() *catalog.Catalog {
	return catalog.New(map[int]catalog.Level{
		1: {
			Video:     "https://example.com/v1",
			Thumbnail: "https://example.com/t1.jpg",
			Questions: []catalog.Question{
				{Prompt: "2+2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
				{Prompt: "3+3?", Options: []string{"6", "7"}, CorrectIndex: 0},
			},
		},
		2: {
			Questions: []catalog.Question{
				{Prompt: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectIndex: 0},
			},
		},
		3: {
			Video:     "https://example.com/v3",
			Thumbnail: "https://example.com/t3.jpg",
		},
		4: {
			Questions: []catalog.Question{
				{Prompt: "Last question?", Options: []string{"Yes", "No"}, CorrectIndex: 0},
			},
		},
	})
}

const testAdminID = int64(900001)

type engineFixture struct {
	engine    *ProgressionEngine
	transport *fakeTransport
	sched     *manualScheduler
	users     *db.UserRepository
	cleanup   func()
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()
	queue, cleanup := setupTestQueue(t)

	transport := newFakeTransport()
	sched := &manualScheduler{}
	userRepo := db.NewUserRepository(queue)
	settingsRepo := db.NewSettingsRepository(queue)
	errMgr := NewErrorManager(transport, testAdminID)
	msgMgr := NewMessageManager(transport, errMgr)
	engine := NewProgressionEngine(testCatalog(), userRepo, settingsRepo, msgMgr, sched, DefaultVideoDelay)

	return &engineFixture{
		engine:    engine,
		transport: transport,
		sched:     sched,
		users:     userRepo,
		cleanup:   cleanup,
	}
}
