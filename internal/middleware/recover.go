package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/data_harmony/pkg/logger"
)

// Recover turns a handler panic into a 500 envelope. If the handler already
// started the response nothing more is written.
func Recover(log *logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.NewDefault("http")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrap(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).WithFields(logrus.Fields{
					"panic":  fmt.Sprint(rec),
					"method": r.Method,
					"path":   r.URL.Path,
					"stack":  string(debug.Stack()),
				}).Error("handler panic")
				if !rw.written {
					writeError(rw, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(rw, r)
		})
	}
}
