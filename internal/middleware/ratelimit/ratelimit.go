package rateLimit

import (
	"net/http"
	"time"

	httprate "github.com/go-chi/httprate"
)

func RequestCode() func(http.Handler) http.Handler {
	return limitByIP(10, 15*time.Minute)
}

func VerifyCode() func(http.Handler) http.Handler {
	return limitByIP(20, 15*time.Minute)
}

func Recruiter() func(http.Handler) http.Handler {
	return limitByIP(5, time.Hour)
}

func Logout() func(http.Handler) http.Handler {
	return limitByIP(20, 10*time.Minute)
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window)
}
