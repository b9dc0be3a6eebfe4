package recruiter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"event_service/internal/auth"
	resp "event_service/internal/lib/api/response"
	sl "event_service/internal/lib/logger"
	"event_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
	Recruiter models.User `json:"recruiter"`
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expires_in"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.recruiter.New"

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

		user, token, err := authService.RegisterRecruiter(ctx, req.Name, req.Email)
		if err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				log.Info("email already registered")

				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("Email already registered"))

				return
			}

			log.Error("failed to register recruiter", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Recruiter registered")

		ResponseOK(w, r, user, token, authService.TokenTTLSeconds())
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, user models.User, token string, expiresIn int) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		Response:  resp.OK(),
		Recruiter: user,
		Token:     token,
		ExpiresIn: expiresIn,
	})
}
