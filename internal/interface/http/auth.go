package http

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/nexus-academicus/1board/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCESS CONTROL
// Identity comes from the identity provider through X-User-ID. Admin
// operations require X-Admin-Key matching a bcrypt hash from config.
// ══════════════════════════════════════════════════════════════════════════════

// HashAdminKey produces the value to put in ADMIN_API_KEY_HASH.
func HashAdminKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("admin key cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// requireAdmin rejects requests without a valid admin key. With no hash
// configured every admin route answers 403.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.AdminKeyHash == "" {
			writeJSONError(w, r, http.StatusForbidden, "forbidden", "Admin API is disabled")
			return
		}

		key := r.Header.Get(HeaderAdminKey)
		if key == "" {
			writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Admin key is required")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminKeyHash), []byte(key)); err != nil {
			logger.FromContext(r.Context()).Warn("admin key rejected", logger.String("ip", getClientIP(r)))
			writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid admin key")
			return
		}

		next(w, r)
	}
}

// requireCaller only lets a student act on their own record.
func (s *Server) requireCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := r.Header.Get(HeaderUserID)
		if caller == "" {
			writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Caller identity is required")
			return
		}
		if caller != r.PathValue("identity") {
			writeJSONError(w, r, http.StatusForbidden, "forbidden", "Students may only modify their own profile")
			return
		}
		next(w, r)
	}
}
