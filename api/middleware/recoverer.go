package middleware

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/reporting"
)

// Recoverer turns a handler panic into a 500 envelope and reports it. A panic
// raised after the handler started writing only gets reported.
func Recoverer(logg *logger.Logger, reporter reporting.Reporter) func(http.Handler) http.Handler {
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				err := fmt.Errorf("panic: %v", v)
				reporter.Report(r.Context(), reporting.EventPanicRecovered, err, map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				if rec.status != 0 {
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
