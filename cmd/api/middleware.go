package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"venueslots/internal/auth"

	"github.com/go-chi/chi/v5"
)

type requesterKey string

const requesterCtx requesterKey = "requester"

func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
			return
		}

		jwtToken, err := app.authenticator.ValidateAccessToken(parts[1])
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		userID, err := auth.UserID(jwtToken)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), requesterCtx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getRequesterID returns the authenticated user id, or 0 outside
// AuthTokenMiddleware.
func getRequesterID(r *http.Request) int64 {
	if id, ok := r.Context().Value(requesterCtx).(int64); ok {
		return id
	}
	return 0
}

// RequireVenueOwner lets the request through only when the authenticated
// user owns the venue in the path.
func (app *application) RequireVenueOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid venue ID"))
			return
		}

		venue, err := app.engine.Venue(r.Context(), venueID)
		if err != nil {
			app.engineErrorResponse(w, r, err)
			return
		}
		if venue.OwnerID != getRequesterID(r) {
			app.forbiddenResponse(w, r, errors.New("only the venue owner can manage blocked dates"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		allow, retryAfter, err := app.rateLimiter.Allow(r.Context(), ip)
		if err != nil {
			// fail open
			app.logger.Warnw("rate limiter error", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !allow {
			app.rateLimitExceededResponse(w, r, retryAfterSeconds(retryAfter.Seconds()))
			return
		}

		next.ServeHTTP(w, r)
	})
}
