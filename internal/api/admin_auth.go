package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// adminAuth guards mutation endpoints with an HMAC-signed bearer token
// carrying a "sub" claim. When no secret is configured every admin request
// is rejected.
type adminAuth struct {
	jwtSecret []byte
	log       *zap.Logger
}

func newAdminAuthFromEnv(log *zap.Logger) *adminAuth {
	return &adminAuth{
		jwtSecret: []byte(os.Getenv("ADMIN_JWT_SECRET")),
		log:       log.Named("admin"),
	}
}

func (a *adminAuth) extractSubject(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	token, err := jwtlib.Parse(tokenStr, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid JWT: %w", err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid JWT claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("JWT missing sub claim")
	}

	return sub, nil
}

func (a *adminAuth) middleware(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "OPTIONS" {
			next.ServeHTTP(w, r)
			return
		}

		if len(a.jwtSecret) == 0 {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "admin API disabled"})
			return
		}

		sub, err := a.extractSubject(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		a.log.Info("admin request",
			zap.String("subject", sub),
			zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
