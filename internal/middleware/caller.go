package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/database"
	logpkg "github.com/benvon/smart-reminders/internal/logger"
	"github.com/benvon/smart-reminders/internal/request"
)

// Caller resolves the X-External-ID header to a registered person and
// stores the result in the request context. Unregistered callers pass
// through with a nil Person; handlers decide whether that is allowed.
func Caller(people database.PersonRepositoryInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller := &request.Caller{
				ExternalID: strings.TrimSpace(r.Header.Get(request.CallerHeader)),
			}

			if caller.ExternalID != "" {
				p, err := people.GetByExternalID(ctx, caller.ExternalID)
				switch {
				case err == nil:
					caller.Person = p
				case errors.Is(err, database.ErrNotFound):
				default:
					logger.Error("caller_lookup_failed",
						zap.String("external_id", logpkg.SanitizeExternalID(caller.ExternalID)),
						zap.Error(err),
					)
					respondErrorJSON(w, r, http.StatusInternalServerError, ErrorKindInternal, InternalErrorMessage, logger)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(request.WithCaller(ctx, caller)))
		})
	}
}
