package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tempus-hr/tempus/internal/shared"
)

// ActorMiddleware resolves the session user into a request actor. The
// employee record is loaded per request so role and status changes take
// effect without re-login. Requests without a valid session pass
// through without an actor; the rbac middleware turns that into 401
// where one is required.
func ActorMiddleware(logger *slog.Logger, staff Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			userID := sess.User()
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}
			employeeID, err := strconv.ParseInt(userID, 10, 64)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			emp, err := staff.Get(r.Context(), employeeID)
			if err != nil || !emp.Active() {
				if err != nil {
					logger.Warn("resolve session actor", slog.Any("error", err), slog.Int64("employee_id", employeeID))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := shared.ContextWithActor(r.Context(), ActorFor(emp))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
