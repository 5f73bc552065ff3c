//go:build !integration

package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/infra/worker"
)

// -----------------------------
// Fakes
// -----------------------------

type fakeAPI struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	stopped  bool

	SendFunc func(c tgbotapi.Chattable) error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if f.SendFunc != nil {
		if err := f.SendFunc(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.nextID++
	return tgbotapi.Message{MessageID: 500 + f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

type recordingPool struct {
	mu   sync.Mutex
	keys []int64
	err  error
}

func (p *recordingPool) Submit(ctx context.Context, key int64, task worker.Task) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.keys = append(p.keys, key)
	p.mu.Unlock()
	return task(ctx)
}

type recordingHandler struct {
	mu     sync.Mutex
	events []model.Event
}

func (h *recordingHandler) Handle(ctx context.Context, ev model.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return nil
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func newTestAdapter(api *fakeAPI, cfg *config.BotConfig) *RealTelegramBotAdapter {
	if cfg == nil {
		cfg = &config.BotConfig{SendRPS: 1000}
	}
	logger := zerolog.Nop()
	return newAdapter(api, cfg, &logger)
}

func command(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 3,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: chatID, FirstName: "Jane", LastName: "Doe"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

// -----------------------------
// Update conversion
// -----------------------------

func TestToEvent(t *testing.T) {
	t.Run("should convert a command and strip the bot name", func(t *testing.T) {
		in, ok := toEvent(command(42, "/start@FishBot"))

		require.True(t, ok)
		require.Equal(t, model.EventCommand, in.event.Kind)
		require.Equal(t, "start", in.event.Command)
		require.Equal(t, model.Sender{FirstName: "Jane", LastName: "Doe"}, in.event.From)
	})

	t.Run("should convert a button tap with the message that holds it", func(t *testing.T) {
		up := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: 42, FirstName: "Jane", UserName: "jane"},
			Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: 42}},
			Data:    "qty:5:P1",
		}}

		in, ok := toEvent(up)

		require.True(t, ok)
		require.Equal(t, "cb-1", in.callbackID)
		require.Equal(t, model.ButtonEvent(42, 77, "qty:5:P1").Token, in.event.Token)
		require.Equal(t, 77, in.event.MessageID)
		require.Equal(t, "jane", in.event.From.Username)
	})

	t.Run("should keep the callback id of an unusable tap", func(t *testing.T) {
		in, ok := toEvent(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{ID: "cb-2", Data: "menu"}})

		require.False(t, ok)
		require.Equal(t, "cb-2", in.callbackID)
	})

	t.Run("should convert text and own contact", func(t *testing.T) {
		text := tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 4, Chat: &tgbotapi.Chat{ID: 42}, Text: "jane@example.com"}}
		in, ok := toEvent(text)
		require.True(t, ok)
		require.Equal(t, model.EventText, in.event.Kind)
		require.Equal(t, "jane@example.com", in.event.Text)

		contact := tgbotapi.Update{Message: &tgbotapi.Message{
			MessageID: 5,
			Chat:      &tgbotapi.Chat{ID: 42},
			From:      &tgbotapi.User{ID: 42},
			Contact:   &tgbotapi.Contact{PhoneNumber: "+15550100", UserID: 42},
		}}
		in, ok = toEvent(contact)
		require.True(t, ok)
		require.Equal(t, model.EventContact, in.event.Kind)
		require.Equal(t, "+15550100", in.event.Phone)
	})

	t.Run("should pass somebody else's contact on as text", func(t *testing.T) {
		foreign := tgbotapi.Update{Message: &tgbotapi.Message{
			MessageID: 6,
			Chat:      &tgbotapi.Chat{ID: 42},
			From:      &tgbotapi.User{ID: 42},
			Contact:   &tgbotapi.Contact{PhoneNumber: "+15550999", UserID: 99},
		}}

		in, ok := toEvent(foreign)

		require.True(t, ok)
		require.Equal(t, model.EventText, in.event.Kind)
		require.Equal(t, "+15550999", in.event.Text)
		require.Empty(t, in.event.Phone)
	})

	t.Run("should ignore empty and edited messages", func(t *testing.T) {
		_, ok := toEvent(tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}}})
		require.False(t, ok)

		_, ok = toEvent(tgbotapi.Update{EditedMessage: &tgbotapi.Message{Text: "edit"}})
		require.False(t, ok)
	})
}

// -----------------------------
// Rendering
// -----------------------------

func TestRender(t *testing.T) {
	ctx := context.Background()
	rows := [][]adapter.InlineButton{{{Text: "Salmon", Data: "product:P1"}, {Text: "Cart", Data: "cart"}}}

	t.Run("should send text with an inline keyboard", func(t *testing.T) {
		api := &fakeAPI{}
		id, err := newTestAdapter(api, nil).Render(ctx, 42, adapter.SendText("Choose a product:", rows))

		require.NoError(t, err)
		require.Equal(t, 501, id)
		msg := api.sent[0].(tgbotapi.MessageConfig)
		require.EqualValues(t, 42, msg.ChatID)
		kb := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		require.Len(t, kb.InlineKeyboard, 1)
		require.Equal(t, "product:P1", *kb.InlineKeyboard[0][0].CallbackData)
	})

	t.Run("should attach a one-time contact keyboard", func(t *testing.T) {
		api := &fakeAPI{}
		a := adapter.SendText("Send me your phone number", nil)
		a.ContactRequest = "Share phone number"

		_, err := newTestAdapter(api, nil).Render(ctx, 42, a)

		require.NoError(t, err)
		kb := api.sent[0].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
		require.True(t, kb.OneTimeKeyboard)
		require.True(t, kb.Keyboard[0][0].RequestContact)
		require.Equal(t, "Share phone number", kb.Keyboard[0][0].Text)
	})

	t.Run("should delete the target before sending a photo", func(t *testing.T) {
		api := &fakeAPI{}

		id, err := newTestAdapter(api, nil).Render(ctx, 42, adapter.Replace(101, adapter.SendImage([]byte("jpeg"), "Salmon", rows)))

		require.NoError(t, err)
		require.Equal(t, 501, id)
		require.Equal(t, tgbotapi.NewDeleteMessage(42, 101), api.requests[0])
		photo := api.sent[0].(tgbotapi.PhotoConfig)
		require.Equal(t, "Salmon", photo.Caption)
		require.Equal(t, []byte("jpeg"), photo.File.(tgbotapi.FileBytes).Bytes)
	})

	t.Run("should edit in place and keep the message id", func(t *testing.T) {
		api := &fakeAPI{}

		id, err := newTestAdapter(api, nil).Render(ctx, 42, adapter.Edit(120, "Your cart is empty", rows))

		require.NoError(t, err)
		require.Equal(t, 120, id)
		edit := api.sent[0].(tgbotapi.EditMessageTextConfig)
		require.Equal(t, 120, edit.MessageID)
		require.NotNil(t, edit.ReplyMarkup)
	})

	t.Run("should replace a message that cannot be edited", func(t *testing.T) {
		api := &fakeAPI{SendFunc: func(c tgbotapi.Chattable) error {
			if _, ok := c.(tgbotapi.EditMessageTextConfig); ok {
				return errors.New("Bad Request: there is no text in the message to edit")
			}
			return nil
		}}

		id, err := newTestAdapter(api, nil).Render(ctx, 42, adapter.Edit(120, "Is this your name?", nil))

		require.NoError(t, err)
		require.NotEqual(t, 120, id)
		require.Equal(t, tgbotapi.NewDeleteMessage(42, 120), api.requests[0])
		require.IsType(t, tgbotapi.MessageConfig{}, api.sent[1])
	})

	t.Run("should send when there is nothing to edit", func(t *testing.T) {
		api := &fakeAPI{}

		_, err := newTestAdapter(api, nil).Render(ctx, 42, adapter.Edit(0, "hello", nil))

		require.NoError(t, err)
		require.IsType(t, tgbotapi.MessageConfig{}, api.sent[0])
		require.Empty(t, api.requests)
	})

	t.Run("should wrap send failures as transport errors", func(t *testing.T) {
		api := &fakeAPI{SendFunc: func(tgbotapi.Chattable) error { return errors.New("Forbidden: bot was blocked by the user") }}

		_, err := newTestAdapter(api, nil).Render(ctx, 42, adapter.SendText("hi", nil))

		var terr *domain.TransportError
		require.ErrorAs(t, err, &terr)
		require.Equal(t, "send_text", terr.Op)
		require.Equal(t, "transport", domain.ErrorClass(err))
	})
}

// -----------------------------
// Dispatch
// -----------------------------

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	tap := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-9",
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: 42}},
		Data:    "cart",
	}}

	t.Run("should answer the callback and hand the event to the chat's worker", func(t *testing.T) {
		api := &fakeAPI{}
		r := newTestAdapter(api, nil)
		pool, h := &recordingPool{}, &recordingHandler{}
		r.Bind(h, pool, nil)

		r.dispatch(ctx, tap)

		require.Equal(t, tgbotapi.NewCallback("cb-9", ""), api.requests[0])
		require.Equal(t, []int64{42}, pool.keys)
		require.Len(t, h.events, 1)
		require.Equal(t, "cart", h.events[0].Token)
	})

	t.Run("should drop rate limited events", func(t *testing.T) {
		r := newTestAdapter(&fakeAPI{}, &config.BotConfig{SendRPS: 1000, RateLimitPerMinute: 30})
		limiter := &stubLimiter{allow: false}
		h := &recordingHandler{}
		r.Bind(h, &recordingPool{}, limiter)

		r.dispatch(ctx, command(42, "/start"))

		require.Empty(t, h.events)
		require.Equal(t, []string{"rate_limit:42:command"}, limiter.keys)
	})

	t.Run("should fail open when the limiter is down", func(t *testing.T) {
		r := newTestAdapter(&fakeAPI{}, &config.BotConfig{SendRPS: 1000, RateLimitPerMinute: 30})
		h := &recordingHandler{}
		r.Bind(h, &recordingPool{}, &stubLimiter{err: errors.New("redis down")})

		r.dispatch(ctx, command(42, "/start"))

		require.Len(t, h.events, 1)
	})

	t.Run("should survive a stopped pool", func(t *testing.T) {
		r := newTestAdapter(&fakeAPI{}, nil)
		h := &recordingHandler{}
		r.Bind(h, &recordingPool{err: worker.ErrPoolStopped}, nil)

		r.dispatch(ctx, command(42, "/start"))

		require.Empty(t, h.events)
	})
}

func TestStartPolling(t *testing.T) {
	t.Run("should refuse to poll before Bind", func(t *testing.T) {
		err := newTestAdapter(&fakeAPI{}, nil).StartPolling(context.Background())
		require.Error(t, err)
	})

	t.Run("should stop on StopPolling", func(t *testing.T) {
		api := &fakeAPI{updates: make(chan tgbotapi.Update, 1)}
		r := newTestAdapter(api, nil)
		h := &recordingHandler{}
		r.Bind(h, &recordingPool{}, nil)
		api.updates <- command(42, "/start")

		done := make(chan error, 1)
		go func() { done <- r.StartPolling(context.Background()) }()
		require.Eventually(t, func() bool {
			h.mu.Lock()
			defer h.mu.Unlock()
			return len(h.events) == 1
		}, time.Second, 5*time.Millisecond)
		r.StopPolling()

		require.ErrorIs(t, <-done, context.Canceled)
		api.mu.Lock()
		defer api.mu.Unlock()
		require.True(t, api.stopped)
	})
}
