// File: internal/usecase/conversation_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/domain/ports/repository"
	"telegram-fish-shop/internal/infra/logging"
	"telegram-fish-shop/internal/infra/metrics"
)

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

type ConversationUseCase interface {
	// Handle processes one inbound event. Events of one chat are handled one
	// at a time in call order; other chats proceed in parallel.
	Handle(ctx context.Context, ev model.Event) error
	// Session returns a copy of the chat's current session.
	Session(ctx context.Context, chatID int64) (model.Session, error)
}

type ConversationOptions struct {
	QuantityTiers []int
	Currency      string
	// Dev disables PII redaction in logs.
	Dev bool
}

type conversationUC struct {
	catalog  *model.Catalog
	products adapter.CatalogGateway
	orders   adapter.OrderGateway
	sessions repository.SessionStore
	bot      adapter.Renderer
	alerts   adapter.AlertSink
	journal  repository.OrderRepository // optional
	screens  screens
	tiers    []int
	dev      bool
	locks    *chatLocks
	log      *zerolog.Logger
}

// outcome is what a successful executor hands back to Handle.
type outcome struct {
	next   model.State
	render adapter.RenderAction
}

func NewConversationUseCase(
	catalog *model.Catalog,
	products adapter.CatalogGateway,
	orders adapter.OrderGateway,
	sessions repository.SessionStore,
	bot adapter.Renderer,
	alerts adapter.AlertSink,
	journal repository.OrderRepository,
	tr Translator,
	opts ConversationOptions,
	logger *zerolog.Logger,
) *conversationUC {
	tiers := opts.QuantityTiers
	if len(tiers) == 0 {
		tiers = []int{1, 5, 10}
	}
	l := logger.With().Str("component", "ConversationUC").Logger()
	return &conversationUC{
		catalog:  catalog,
		products: products,
		orders:   orders,
		sessions: sessions,
		bot:      bot,
		alerts:   alerts,
		journal:  journal,
		screens:  screens{tr: tr, currency: opts.Currency},
		tiers:    tiers,
		dev:      opts.Dev,
		locks:    newChatLocks(),
		log:      &l,
	}
}

func (c *conversationUC) Handle(ctx context.Context, ev model.Event) error {
	if logging.TraceID(ctx) == "" {
		ctx = logging.WithTraceID(ctx, "")
	}
	ctx = logging.WithEvent(logging.WithChatID(ctx, ev.ChatID), string(ev.Kind))
	log := logging.With(ctx, c.log)
	defer logging.TraceDuration(log, "ConversationUC.Handle")()
	metrics.IncEvent(string(ev.Kind))

	unlock := c.locks.lock(ev.ChatID)
	defer unlock()

	start := time.Now()
	sess, err := c.sessions.Get(ctx, ev.ChatID)
	if err != nil {
		err = fmt.Errorf("load session: %w", err)
		c.fail(ctx, log, ev, model.NewSession(ev.ChatID), "", err)
		return err
	}
	defer func() { metrics.ObserveHandle(string(sess.State), time.Since(start).Seconds()) }()

	dec, ok := Decide(sess, ev)
	if !ok {
		metrics.IncUnhandledEvent(string(sess.State), string(ev.Kind))
		log.Debug().Str("state", string(sess.State)).Str("token", ev.Token).Msg("no route for event; ignored")
		return nil
	}

	work := sess.Clone()
	out, err := c.execute(ctx, log, &work, ev, dec)
	if err != nil {
		c.fail(ctx, log, ev, sess, dec.Intent, err)
		return err
	}

	msgID, err := c.bot.Render(ctx, ev.ChatID, out.render)
	if err != nil {
		// The backend side already happened; the screen is stale but the state moves on.
		log.Warn().Err(err).Str("intent", string(dec.Intent)).Str("render", out.render.Kind.String()).Msg("render failed")
	} else if msgID != 0 {
		work.CleanupMessageID = msgID
	}

	work.State = out.next
	if err := c.sessions.Put(ctx, work); err != nil {
		err = fmt.Errorf("store session: %w", err)
		c.fail(ctx, log, ev, sess, dec.Intent, err)
		return err
	}

	metrics.IncTransition(string(sess.State), string(work.State))
	log.Info().
		Str("intent", string(dec.Intent)).
		Str("from", string(sess.State)).
		Str("to", string(work.State)).
		Msg("transition")
	return nil
}

func (c *conversationUC) Session(ctx context.Context, chatID int64) (model.Session, error) {
	unlock := c.locks.lock(chatID)
	defer unlock()
	s, err := c.sessions.Get(ctx, chatID)
	if err != nil {
		return model.Session{}, err
	}
	return s.Clone(), nil
}

func (c *conversationUC) execute(ctx context.Context, log *zerolog.Logger, s *model.Session, ev model.Event, d Decision) (outcome, error) {
	switch d.Intent {
	case IntentStart:
		return c.start(s)
	case IntentShowCatalog:
		return c.showCatalog(s, ev, d)
	case IntentShowProduct:
		return c.showProduct(ctx, s, ev, d)
	case IntentShowCart:
		return c.showCart(ctx, s, ev, d)
	case IntentPurchase:
		return c.purchase(ctx, log, s, ev, d)
	case IntentRemove:
		return c.remove(ctx, log, s, ev, d)
	case IntentCheckout:
		return c.checkout(ctx, s, ev, d)
	case IntentEditData:
		return c.proposeName(s, ev, d)
	case IntentPlaceOrder:
		return c.placeOrder(ctx, log, s, ev, d)
	case IntentAcceptName:
		return outcome{next: d.Next, render: adapter.Edit(target(s, ev), c.screens.tr.T("ask_email"), nil)}, nil
	case IntentRejectName:
		s.Registration.Name = ""
		return outcome{next: d.Next, render: adapter.Edit(target(s, ev), c.screens.tr.T("ask_name"), nil)}, nil
	case IntentSubmitName:
		return c.submitName(s, ev, d)
	case IntentSubmitEmail:
		return c.submitEmail(s, ev, d)
	case IntentRejectEmail:
		return c.rejectEmail(log, ev, d)
	case IntentRemindContact:
		return c.remindContact(d)
	case IntentSubmitContact:
		return c.submitContact(ctx, log, s, ev, d)
	}
	return outcome{}, fmt.Errorf("intent %q has no executor: %w", d.Intent, domain.ErrInvalidArgument)
}

// fail reports a handler error. The session is not written, so the user can
// repeat the action from the same screen.
func (c *conversationUC) fail(ctx context.Context, log *zerolog.Logger, ev model.Event, s model.Session, intent Intent, err error) {
	class := domain.ErrorClass(err)
	metrics.IncHandlerError(class)
	log.Error().
		Err(err).
		Str("state", string(s.State)).
		Str("intent", string(intent)).
		Str("error_class", class).
		Msg("event handling failed")

	c.alerts.Notify(ctx, adapter.Alert{
		Severity: adapter.AlertError,
		Message:  "event handling failed",
		ChatID:   ev.ChatID,
		State:    string(s.State),
		Intent:   string(intent),
		Err:      err,
		Tags:     map[string]string{"error_class": class, "trace_id": logging.TraceID(ctx)},
	})

	// The notice is sent as a new message so the current screen and its
	// buttons stay usable; the cleanup id is left alone.
	notice := adapter.SendText(c.screens.tr.T("try_again"), nil)
	if _, rerr := c.bot.Render(ctx, ev.ChatID, notice); rerr != nil {
		log.Warn().Err(rerr).Msg("failed to send retry notice")
	}
}

// target is the message a screen change applies to: the one holding the
// tapped button, or the last bot message for text and contact events.
func target(s *model.Session, ev model.Event) int {
	if ev.Kind == model.EventButton && ev.MessageID != 0 {
		return ev.MessageID
	}
	return s.CleanupMessageID
}
