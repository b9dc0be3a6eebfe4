package verifyCode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"event_service/internal/auth"
	resp "event_service/internal/lib/api/response"
	sl "event_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Code string `json:"code" validate:"required"`
}

type Response struct {
	resp.Response
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verifyCode.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		_, token, err := authService.VerifyCode(ctx, req.Code)
		if err != nil {
			if errors.Is(err, auth.ErrCodeNotFound) {
				log.Info("code not found")

				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Code not found"))

				return
			}
			if errors.Is(err, auth.ErrCodeExpired) {
				log.Info("code expired")

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Code expired"))

				return
			}
			if errors.Is(err, auth.ErrCodeUsed) {
				log.Info("code already used")

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Code already used"))

				return
			}

			log.Error("failed to verify code", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Entry code verified")

		ResponseOK(w, r, token, authService.TokenTTLSeconds())
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, token string, expiresIn int) {
	render.JSON(w, r, Response{
		Response:  resp.OK(),
		Token:     token,
		ExpiresIn: expiresIn,
	})
}
