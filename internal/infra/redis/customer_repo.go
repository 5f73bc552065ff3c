package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/repository"
)

var _ repository.CustomerBindingRepository = (*CustomerRepo)(nil)

// Sealer encrypts a value for one chat. See security.Sealer.
type Sealer interface {
	Seal(chatID int64, plaintext string) (string, error)
	Open(chatID int64, sealed string) (string, error)
}

// CustomerRepo keeps the chat to customer binding and the contact details
// last sent for that customer. Keys never expire, so both outlive session
// resets and process restarts.
type CustomerRepo struct {
	client RedisClient
	sealer Sealer // nil stores contacts in clear
}

func NewCustomerRepo(client RedisClient) *CustomerRepo {
	return &CustomerRepo{client: client}
}

// WithSealer encrypts stored contacts with s.
func (r *CustomerRepo) WithSealer(s Sealer) *CustomerRepo {
	r.sealer = s
	return r
}

func customerKey(chatID int64) string { return "customer:" + strconv.FormatInt(chatID, 10) }
func contactKey(chatID int64) string  { return "customer_contact:" + strconv.FormatInt(chatID, 10) }

func (r *CustomerRepo) GetCustomerID(ctx context.Context, chatID int64) (string, bool, error) {
	id, err := r.client.Get(ctx, customerKey(chatID))
	if errors.Is(err, Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, id != "", nil
}

func (r *CustomerRepo) SetCustomerID(ctx context.Context, chatID int64, customerID string) error {
	if customerID == "" {
		return domain.ErrInvalidArgument
	}
	return r.client.Set(ctx, customerKey(chatID), customerID, 0)
}

type contactRecord struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (r *CustomerRepo) GetContact(ctx context.Context, chatID int64) (model.CustomerFields, bool, error) {
	raw, err := r.client.Get(ctx, contactKey(chatID))
	if errors.Is(err, Nil) {
		return model.CustomerFields{}, false, nil
	}
	if err != nil {
		return model.CustomerFields{}, false, err
	}
	if r.sealer != nil {
		if raw, err = r.sealer.Open(chatID, raw); err != nil {
			return model.CustomerFields{}, false, fmt.Errorf("open contact %d: %w", chatID, err)
		}
	}
	var rec contactRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return model.CustomerFields{}, false, fmt.Errorf("decode contact %d: %w", chatID, err)
	}
	return model.CustomerFields{Name: rec.Name, Email: rec.Email, Phone: rec.Phone}, true, nil
}

func (r *CustomerRepo) SetContact(ctx context.Context, chatID int64, f model.CustomerFields) error {
	if err := f.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(contactRecord{Name: f.Name, Email: f.Email, Phone: f.Phone})
	if err != nil {
		return fmt.Errorf("encode contact %d: %w", chatID, err)
	}
	v := string(b)
	if r.sealer != nil {
		if v, err = r.sealer.Seal(chatID, v); err != nil {
			return fmt.Errorf("seal contact %d: %w", chatID, err)
		}
	}
	return r.client.Set(ctx, contactKey(chatID), v, 0)
}
