package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/m04kA/salon-booking/internal/api/handlers"
)

// RoleAdmin роль, которой разрешены админские маршруты
const RoleAdmin = "admin"

const (
	msgMissingToken = "требуется авторизация"
	msgInvalidToken = "недействительный токен"
	msgForbidden    = "доступ запрещен"
)

type ctxKey struct{}

// Claims полезная нагрузка токена администратора
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth пропускает только запросы с Bearer JWT (HS256) и role=admin
func AdminAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				handlers.RespondUnauthorized(w, msgMissingToken)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(*jwt.Token) (interface{}, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				handlers.RespondUnauthorized(w, msgInvalidToken)
				return
			}

			if claims.Role != RoleAdmin {
				handlers.RespondForbidden(w, msgForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject возвращает subject токена администратора из контекста
func GetSubject(ctx context.Context) (string, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*Claims)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}
