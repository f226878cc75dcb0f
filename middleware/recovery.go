package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"semantic_notes_go/apperrors"
)

// Recovery превращает панику обработчика в ответ 500.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			log.Printf("panic при обработке %s %s: %v\n%s", r.Method, r.URL.Path, p, debug.Stack())
			apperrors.Write(w, r, apperrors.Unexpected())
		}()
		next.ServeHTTP(w, r)
	})
}
