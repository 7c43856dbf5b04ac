package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/melanoai/event-clocking/utils"
)

// added because of type complains
type contextKey string

const SubjectKey contextKey = "subject"

// AuthMiddleware guards the dashboard-facing routes with a bearer token.
// Ingestion and the stream stay open: producers are bots and forms with no
// token channel, matching how the clocking API is consumed.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(tokenString, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token, err := utils.ValidateToken(parts[1])
		if err != nil {
			log.Println(err.Error())
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		claims := token.Claims.(jwt.MapClaims)
		subject, _ := claims["sub"].(string)

		// Add the subject to the context so handlers can attribute reads
		ctx := context.WithValue(r.Context(), SubjectKey, subject)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
