package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "event_service/internal/lib/logger"
	"event_service/internal/models"
	"event_service/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrForbidden     = errors.New("not allowed")
)

type Events struct {
	log      *slog.Logger
	saver    EventSaver
	provider EventProvider
}

type EventSaver interface {
	SaveEvent(ctx context.Context, event models.Event) (primitive.ObjectID, error)
	UpdateEvent(ctx context.Context, id primitive.ObjectID, patch models.EventPatch) (models.Event, error)
	DeleteEvent(ctx context.Context, id primitive.ObjectID) error
}

type EventProvider interface {
	Events(ctx context.Context) ([]models.Event, error)
	EventByID(ctx context.Context, id primitive.ObjectID) (models.Event, error)
}

func New(log *slog.Logger, saver EventSaver, provider EventProvider) *Events {
	return &Events{
		log:      log,
		saver:    saver,
		provider: provider,
	}
}

func (e *Events) Create(ctx context.Context, actor models.User, event models.Event) (models.Event, error) {
	const op = "events.Create"

	log := e.log.With(slog.String("op", op))

	now := time.Now().UTC()
	event.CreatedBy = actor.ID
	event.CreatedAt = now
	event.UpdatedAt = now

	id, err := e.saver.SaveEvent(ctx, event)
	if err != nil {
		log.Error("failed to save event", sl.Err(err))
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	event.ID = id

	log.Info("event created", slog.String("event_id", id.Hex()))

	return event, nil
}

func (e *Events) List(ctx context.Context) ([]models.Event, error) {
	const op = "events.List"

	list, err := e.provider.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

func (e *Events) Get(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	const op = "events.Get"

	event, err := e.provider.EventByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return models.Event{}, ErrEventNotFound
		}

		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

// Update applies a partial update. Only the creator or a recruiter may
// modify an event.
func (e *Events) Update(ctx context.Context, actor models.User, id primitive.ObjectID, patch models.EventPatch) (models.Event, error) {
	const op = "events.Update"

	log := e.log.With(slog.String("op", op))

	if err := e.authorize(ctx, actor, id); err != nil {
		return models.Event{}, err
	}

	event, err := e.saver.UpdateEvent(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return models.Event{}, ErrEventNotFound
		}

		log.Error("failed to update event", sl.Err(err))
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("event updated", slog.String("event_id", id.Hex()))

	return event, nil
}

func (e *Events) Delete(ctx context.Context, actor models.User, id primitive.ObjectID) error {
	const op = "events.Delete"

	log := e.log.With(slog.String("op", op))

	if err := e.authorize(ctx, actor, id); err != nil {
		return err
	}

	if err := e.saver.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return ErrEventNotFound
		}

		log.Error("failed to delete event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("event deleted", slog.String("event_id", id.Hex()))

	return nil
}

func (e *Events) authorize(ctx context.Context, actor models.User, id primitive.ObjectID) error {
	const op = "events.authorize"

	if actor.Recruiter {
		return nil
	}

	event, err := e.provider.EventByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return ErrEventNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if event.CreatedBy != actor.ID {
		return ErrForbidden
	}

	return nil
}
