package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/infra/logging"
	"telegram-fish-shop/internal/infra/metrics"
)

func (c *conversationUC) start(s *model.Session) (outcome, error) {
	*s = s.Reset()
	text, rows := c.screens.welcome(c.catalog.Products())
	return outcome{next: model.StateBrowsing, render: adapter.SendText(text, rows)}, nil
}

func (c *conversationUC) showCatalog(s *model.Session, ev model.Event, d Decision) (outcome, error) {
	text, rows := c.screens.catalog(c.catalog.Products())
	return outcome{next: d.Next, render: adapter.Replace(target(s, ev), adapter.SendText(text, rows))}, nil
}

func (c *conversationUC) showProduct(ctx context.Context, s *model.Session, ev model.Event, d Decision) (outcome, error) {
	p, err := c.catalog.Get(d.ProductID)
	if err != nil {
		return outcome{}, fmt.Errorf("product %q: %w", d.ProductID, err)
	}

	var (
		stock  int
		prices map[string]decimal.Decimal
		image  []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stock, err = c.products.GetStock(gctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		prices, err = c.products.ListPriceBook(gctx)
		return err
	})
	if p.Image.URL != "" {
		g.Go(func() (err error) {
			image, err = c.products.FetchImage(gctx, p.Image)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return outcome{}, err
	}

	var price *decimal.Decimal
	if v, ok := prices[p.SKU]; ok {
		price = &v
	}
	caption, rows := c.screens.productCard(p, price, stock, QuantityTiers(c.tiers, stock))

	s.PendingSelection = &model.Selection{ProductID: p.ID}

	inner := adapter.SendText(caption, rows)
	if len(image) > 0 {
		inner = adapter.SendImage(image, caption, rows)
	}
	return outcome{next: d.Next, render: adapter.Replace(target(s, ev), inner)}, nil
}

func (c *conversationUC) showCart(ctx context.Context, s *model.Session, ev model.Event, d Decision) (outcome, error) {
	snap, err := c.orders.GetCart(ctx, s.ChatID)
	if err != nil {
		return outcome{}, err
	}
	s.TrackCart(snap)
	text, rows := c.screens.cart(snap)
	return outcome{next: d.Next, render: adapter.Replace(target(s, ev), adapter.SendText(text, rows))}, nil
}

// purchase adds the line, then reserves stock. A failed reservation undoes
// a freshly created line once; a line that already held earlier units is
// left for manual reconciliation.
func (c *conversationUC) purchase(ctx context.Context, log *zerolog.Logger, s *model.Session, ev model.Event, d Decision) (outcome, error) {
	if s.PendingSelection == nil || s.PendingSelection.ProductID != d.ProductID {
		return outcome{}, domain.ErrNoPendingSelection
	}

	snap, err := c.orders.AddCartLine(ctx, s.ChatID, d.ProductID, d.Quantity)
	if err != nil {
		return outcome{}, err
	}

	if err := c.orders.ReserveStock(ctx, d.ProductID, d.Quantity); err != nil {
		compensated, cerr := c.compensatePurchase(ctx, s.ChatID, snap, d)
		c.partialFailure(ctx, log, s, d, "purchase", compensated, err, cerr)
		return outcome{}, fmt.Errorf("reserve %d of %s: %w", d.Quantity, d.ProductID, err)
	}

	s.TrackCart(snap)
	s.PendingSelection = nil
	text, rows := c.screens.cart(snap)
	return outcome{next: d.Next, render: adapter.Replace(target(s, ev), adapter.SendText(text, rows))}, nil
}

func (c *conversationUC) compensatePurchase(ctx context.Context, chatID int64, snap model.CartSnapshot, d Decision) (bool, error) {
	line, ok := snap.Line(d.ProductID)
	if !ok {
		return false, errors.New("added line missing from cart snapshot")
	}
	if line.Quantity != d.Quantity {
		return false, fmt.Errorf("line %s holds %d units from earlier purchases", line.ID, line.Quantity)
	}
	if _, err := c.orders.RemoveCartLine(ctx, chatID, line.ID); err != nil {
		return false, err
	}
	return true, nil
}

// remove deletes the line, then releases its stock. A failed release is
// reported but not undone: the line is already gone from the cart.
func (c *conversationUC) remove(ctx context.Context, log *zerolog.Logger, s *model.Session, ev model.Event, d Decision) (outcome, error) {
	ref, ok := s.CartLines[d.ProductID]
	if !ok {
		return outcome{}, domain.ErrStaleCartLine
	}
	d.Quantity = ref.Quantity

	snap, err := c.orders.RemoveCartLine(ctx, s.ChatID, ref.LineID)
	if err != nil {
		return outcome{}, err
	}
	if err := c.orders.ReleaseStock(ctx, d.ProductID, ref.Quantity); err != nil {
		c.partialFailure(ctx, log, s, d, "removal", false, err, nil)
	}

	s.TrackCart(snap)
	text, rows := c.screens.cart(snap)
	return outcome{next: d.Next, render: adapter.Edit(target(s, ev), text, rows)}, nil
}

func (c *conversationUC) partialFailure(ctx context.Context, log *zerolog.Logger, s *model.Session, d Decision, op string, compensated bool, err, compErr error) {
	metrics.IncPartialFailure(op, compensated)
	ev := log.Error().
		Err(err).
		Str("op", op).
		Str("product_id", d.ProductID).
		Int("quantity", d.Quantity).
		Bool("compensated", compensated)
	if compErr != nil {
		ev = ev.AnErr("compensation_error", compErr)
	}
	ev.Msg("partial_failure")

	msg := fmt.Sprintf("%s: cart and inventory disagree", op)
	switch {
	case compensated:
		msg = fmt.Sprintf("%s: stock call failed, cart line rolled back", op)
	case op == "purchase":
		msg = fmt.Sprintf("%s: stock call failed and rollback failed, manual reconciliation needed", op)
	}
	tags := map[string]string{
		"op":          op,
		"product_id":  d.ProductID,
		"quantity":    strconv.Itoa(d.Quantity),
		"compensated": strconv.FormatBool(compensated),
	}
	if compErr != nil {
		tags["compensation_error"] = compErr.Error()
	}
	c.alerts.Notify(ctx, adapter.Alert{
		Severity: adapter.AlertCritical,
		Message:  msg,
		ChatID:   s.ChatID,
		State:    string(s.State),
		Intent:   string(d.Intent),
		Err:      err,
		Tags:     tags,
	})
}

// checkout shows the registered menu to a known customer and starts
// registration otherwise.
func (c *conversationUC) checkout(ctx context.Context, s *model.Session, ev model.Event, d Decision) (outcome, error) {
	_, bound, err := c.sessions.GetCustomerID(ctx, s.ChatID)
	if err != nil {
		return outcome{}, fmt.Errorf("customer lookup: %w", err)
	}
	if bound {
		text, rows := c.screens.registeredMenu()
		return outcome{next: model.StateRegistrationMenu, render: adapter.Edit(target(s, ev), text, rows)}, nil
	}
	return c.proposeName(s, ev, d)
}

func (c *conversationUC) proposeName(s *model.Session, ev model.Event, d Decision) (outcome, error) {
	name := ev.From.FullName()
	if name == "" {
		s.Registration.Name = ""
		return outcome{next: model.StateNameEntry, render: adapter.Edit(target(s, ev), c.screens.tr.T("ask_name"), nil)}, nil
	}
	s.Registration.Name = name
	text, rows := c.screens.nameProposal(ev.From)
	return outcome{next: model.StateNameConfirm, render: adapter.Edit(target(s, ev), text, rows)}, nil
}

func (c *conversationUC) submitName(s *model.Session, ev model.Event, d Decision) (outcome, error) {
	s.Registration.Name = strings.TrimSpace(ev.Text)
	return outcome{next: d.Next, render: adapter.SendText(c.screens.tr.T("ask_email"), nil)}, nil
}

func (c *conversationUC) submitEmail(s *model.Session, ev model.Event, d Decision) (outcome, error) {
	email, err := ValidateEmail(ev.Text)
	if err != nil {
		return outcome{}, err
	}
	s.Registration.Email = email
	return outcome{next: d.Next, render: c.contactPrompt("ask_phone")}, nil
}

func (c *conversationUC) rejectEmail(log *zerolog.Logger, ev model.Event, d Decision) (outcome, error) {
	log.Info().Str("email", logging.Redact(ev.Text, c.dev)).Msg("email rejected")
	return outcome{next: d.Next, render: adapter.SendText(c.screens.tr.T("invalid_email"), nil)}, nil
}

func (c *conversationUC) remindContact(d Decision) (outcome, error) {
	return outcome{next: d.Next, render: c.contactPrompt("phone_use_button")}, nil
}

func (c *conversationUC) contactPrompt(key string) adapter.RenderAction {
	a := adapter.SendText(c.screens.tr.T(key), nil)
	a.ContactRequest = c.screens.tr.T("btn_share_phone")
	return a
}

// submitContact creates the customer on first checkout and updates it on
// every later one. The contact prompt is replaced by the confirmation.
func (c *conversationUC) submitContact(ctx context.Context, log *zerolog.Logger, s *model.Session, ev model.Event, d Decision) (outcome, error) {
	s.Registration.Phone = strings.TrimSpace(ev.Phone)
	fields := s.Registration.Fields()
	if err := fields.Validate(); err != nil {
		return outcome{}, err
	}

	customerID, bound, err := c.sessions.GetCustomerID(ctx, s.ChatID)
	if err != nil {
		return outcome{}, fmt.Errorf("customer lookup: %w", err)
	}
	if bound {
		if err := c.orders.UpdateCustomer(ctx, customerID, fields); err != nil {
			return outcome{}, err
		}
	} else {
		customerID, err = c.orders.CreateCustomer(ctx, fields)
		if err != nil {
			return outcome{}, err
		}
		if err := c.sessions.SetCustomerID(ctx, s.ChatID, customerID); err != nil {
			// Without the binding the next checkout would create a second customer.
			c.alerts.Notify(ctx, adapter.Alert{
				Severity: adapter.AlertCritical,
				Message:  "customer created but not bound to chat",
				ChatID:   s.ChatID,
				Intent:   string(d.Intent),
				Err:      err,
				Tags:     map[string]string{"customer_id": customerID},
			})
			return outcome{}, fmt.Errorf("bind customer %s: %w", customerID, err)
		}
		log.Info().Str("customer_id", customerID).Msg("customer created")
	}
	if err := c.sessions.SetContact(ctx, s.ChatID, fields); err != nil {
		// Later orders from the registered menu journal without contact details.
		log.Warn().Err(err).Msg("contact not remembered")
	}

	c.recordOrder(ctx, log, s, customerID, fields)
	text, rows := c.screens.orderPlaced()
	return outcome{next: d.Next, render: adapter.Replace(target(s, ev), adapter.SendText(text, rows))}, nil
}

// placeOrder uses the stored customer record as is. The journal gets the
// contact remembered at the last registration.
func (c *conversationUC) placeOrder(ctx context.Context, log *zerolog.Logger, s *model.Session, ev model.Event, d Decision) (outcome, error) {
	customerID, bound, err := c.sessions.GetCustomerID(ctx, s.ChatID)
	if err != nil {
		return outcome{}, fmt.Errorf("customer lookup: %w", err)
	}
	if !bound {
		return outcome{}, domain.ErrMissingRegistration
	}
	fields, known, err := c.sessions.GetContact(ctx, s.ChatID)
	if err != nil {
		log.Warn().Err(err).Msg("stored contact unavailable")
	}
	if !known {
		fields = s.Registration.Fields()
	}
	c.recordOrder(ctx, log, s, customerID, fields)
	text, rows := c.screens.orderPlaced()
	return outcome{next: d.Next, render: adapter.Edit(target(s, ev), text, rows)}, nil
}

// recordOrder journals the checkout. Failures are reported and never block
// the confirmation.
func (c *conversationUC) recordOrder(ctx context.Context, log *zerolog.Logger, s *model.Session, customerID string, fields model.CustomerFields) {
	metrics.IncOrderPlaced()
	if c.journal == nil {
		return
	}

	snap, err := c.orders.GetCart(ctx, s.ChatID)
	if err != nil {
		log.Warn().Err(err).Msg("cart unavailable for order journal; recording without lines")
		snap = model.CartSnapshot{}
	}
	order, err := model.NewOrder(s.ChatID, customerID, fields, snap)
	if err == nil {
		err = c.journal.Save(ctx, order)
	}
	if err != nil {
		log.Error().Err(err).Msg("order journal write failed")
		c.alerts.Notify(ctx, adapter.Alert{
			Severity: adapter.AlertError,
			Message:  "order placed but not journaled",
			ChatID:   s.ChatID,
			Err:      err,
			Tags:     map[string]string{"customer_id": customerID},
		})
		return
	}
	log.Info().
		Str("order_id", order.ID).
		Str("phone", logging.Redact(order.Phone, c.dev)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order journaled")
}
