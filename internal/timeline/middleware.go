package timeline

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims of an access token issued by the auth service.
type TokenClaims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type ctxUserIDKey struct{}

// requireUser resolves the acting editor. With no secret the X-User-Id
// header set by the gateway is trusted; otherwise a bearer access token is
// required and its uid replaces the header.
func requireUser(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if len(secret) == 0 {
				userID = strings.TrimSpace(r.Header.Get("X-User-Id"))
				if userID == "" {
					writeError(w, http.StatusUnauthorized, "missing user context")
					return
				}
			} else {
				claims, ok := bearerClaims(r, secret)
				if !ok {
					writeError(w, http.StatusUnauthorized, "invalid token")
					return
				}
				userID = claims.UserID
				r.Header.Set("X-User-Id", userID)
			}

			ctx := context.WithValue(r.Context(), ctxUserIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerClaims(r *http.Request, secret []byte) (*TokenClaims, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.TokenType != "access" || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}

func userIDFromContext(r *http.Request) (string, bool) {
	s, ok := r.Context().Value(ctxUserIDKey{}).(string)
	return s, ok && s != ""
}

// CORS answers preflight requests and allows allowedOrigin ("*" for any).
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-User-Id")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit rejects request bodies larger than maxBytes.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
