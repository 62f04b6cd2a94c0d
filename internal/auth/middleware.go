package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/seyio/acadex/internal/model"
	"github.com/seyio/acadex/internal/store"
)

// RequireAuth resolves the bearer token to an active user and stores it
// in the request context.
func RequireAuth(svc *Service, st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := svc.ParseAccess(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			user, err := st.GetUserByID(claims.UserID)
			if err != nil {
				slog.Error("failed to load user for token", "user_id", claims.UserID, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if user == nil || !user.Active {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(model.ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireStaff rejects requests from non-staff users. It must run after
// RequireAuth.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := model.UserFromContext(r.Context())
		if user == nil || !user.IsStaff() {
			http.Error(w, "staff access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CanManageExam reports whether the user may manage the given exam:
// its owner, or an admin.
func CanManageExam(u *model.User, e model.Exam) bool {
	if u == nil {
		return false
	}
	return u.Role == model.UserRoleAdmin || e.CreatedBy == u.ID
}
