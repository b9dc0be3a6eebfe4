package events

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"event_service/internal/events"
	resp "event_service/internal/lib/api/response"
	sl "event_service/internal/lib/logger"
	"event_service/internal/middleware/authn"
	"event_service/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
}

type EventResponse struct {
	resp.Response
	Event models.Event `json:"event"`
}

type ListResponse struct {
	resp.Response
	Events []models.Event `json:"events"`
}

func NewCreate(
	log *slog.Logger,
	validate *validator.Validate,
	eventService *events.Events,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewCreate"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		actor, ok := authn.UserFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("invalid or missing token"))

			return
		}

		var req CreateRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		event, err := eventService.Create(ctx, actor, models.Event{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			StartsAt:    req.StartsAt,
		})
		if err != nil {
			log.Error("failed to create event", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Event created")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, EventResponse{
			Response: resp.OK(),
			Event:    event,
		})
	}
}

func NewList(
	log *slog.Logger,
	eventService *events.Events,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewList"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := eventService.List(ctx)
		if err != nil {
			log.Error("failed to list events", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Events:   list,
		})
	}
}

func NewGet(
	log *slog.Logger,
	eventService *events.Events,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewGet"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := eventID(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		event, err := eventService.Get(ctx, id)
		if err != nil {
			if errors.Is(err, events.ErrEventNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Event not found"))

				return
			}

			log.Error("failed to get event", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, EventResponse{
			Response: resp.OK(),
			Event:    event,
		})
	}
}

func NewUpdate(
	log *slog.Logger,
	eventService *events.Events,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewUpdate"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		actor, ok := authn.UserFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("invalid or missing token"))

			return
		}

		id, ok := eventID(w, r)
		if !ok {
			return
		}

		var patch models.EventPatch

		if err := render.DecodeJSON(r.Body, &patch); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		event, err := eventService.Update(ctx, actor, id, patch)
		if err != nil {
			if errors.Is(err, events.ErrEventNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Event not found"))

				return
			}
			if errors.Is(err, events.ErrForbidden) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("Not allowed"))

				return
			}

			log.Error("failed to update event", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Event updated")

		render.JSON(w, r, EventResponse{
			Response: resp.OK(),
			Event:    event,
		})
	}
}

func NewDelete(
	log *slog.Logger,
	eventService *events.Events,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewDelete"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		actor, ok := authn.UserFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("invalid or missing token"))

			return
		}

		id, ok := eventID(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := eventService.Delete(ctx, actor, id); err != nil {
			if errors.Is(err, events.ErrEventNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Event not found"))

				return
			}
			if errors.Is(err, events.ErrForbidden) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("Not allowed"))

				return
			}

			log.Error("failed to delete event", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Event deleted")

		render.JSON(w, r, resp.OK())
	}
}

func eventID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Invalid event id"))

		return primitive.NilObjectID, false
	}

	return id, true
}
