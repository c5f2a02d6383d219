package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"welcome-screen-backend/internal/model"
)

// Updater is the part of the updater service the API exposes.
type Updater interface {
	RunOnce(ctx context.Context) (model.SyncStatus, error)
	LastStatus() (model.SyncStatus, bool)
	Preview(fullName string) (string, string)
	// OnUpdate registers fn to run after every pass.
	OnUpdate(fn func(model.SyncStatus))
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	updater Updater
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(u Updater, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		updater: u,
		webpush: webpushOptions,
	}
}
