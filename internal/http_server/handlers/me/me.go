package me

import (
	"log/slog"
	"net/http"

	resp "event_service/internal/lib/api/response"
	"event_service/internal/middleware/authn"
	"event_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	User models.User `json:"user"`
}

func New(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, ok := authn.UserFromContext(r.Context())
		if !ok {
			log.Warn("no authenticated user in context")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("invalid or missing token"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			User:     user,
		})
	}
}
