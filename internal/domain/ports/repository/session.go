package repository

import (
	"context"

	"telegram-fish-shop/internal/domain/model"
)

// SessionStore keeps per-chat conversation records and the durable chat to
// customer binding. Writers for one chat id are serialized by the caller.
type SessionStore interface {
	// Get returns model.NewSession(chatID) when nothing is stored yet.
	Get(ctx context.Context, chatID int64) (model.Session, error)
	Put(ctx context.Context, session model.Session) error
	GetCustomerID(ctx context.Context, chatID int64) (string, bool, error)
	SetCustomerID(ctx context.Context, chatID int64, customerID string) error
	// GetContact returns the fields last sent to the backend for the chat's customer.
	GetContact(ctx context.Context, chatID int64) (model.CustomerFields, bool, error)
	SetContact(ctx context.Context, chatID int64, fields model.CustomerFields) error
}

// SessionRepository is the conversation half of a SessionStore.
type SessionRepository interface {
	Get(ctx context.Context, chatID int64) (model.Session, error)
	Put(ctx context.Context, session model.Session) error
}

// CustomerBindingRepository is the durable half of a SessionStore.
type CustomerBindingRepository interface {
	GetCustomerID(ctx context.Context, chatID int64) (string, bool, error)
	SetCustomerID(ctx context.Context, chatID int64, customerID string) error
	GetContact(ctx context.Context, chatID int64) (model.CustomerFields, bool, error)
	SetContact(ctx context.Context, chatID int64, fields model.CustomerFields) error
}
