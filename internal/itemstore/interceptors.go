package itemstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fulldump/box"
)

// RecoverFromPanic turns a handler panic into an error response
func RecoverFromPanic(next box.H) box.H {
	return func(ctx context.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("panic serving %s: %v\n%s", box.GetRequest(ctx).URL, err, debug.Stack())
				box.SetError(ctx, fmt.Errorf("internal error: %v", err))
			}
		}()
		next(ctx)
	}
}

func AccessLog(l *log.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			now := time.Now()
			defer func() {
				l.Println(now.UTC().Format(time.RFC3339Nano), formatRemoteAddr(r), r.Method, r.URL.String(), time.Since(now))
			}()

			next(ctx)
		}
	}
}

func formatRemoteAddr(r *http.Request) string {
	xorigin := strings.TrimSpace(strings.Split(
		r.Header.Get("X-Forwarded-For"), ",")[0])
	if xorigin != "" {
		return xorigin
	}

	if i := strings.LastIndex(r.RemoteAddr, ":"); i >= 0 {
		return r.RemoteAddr[:i]
	}
	return r.RemoteAddr
}

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

// statusOf maps an error to its HTTP status and a human description
func statusOf(err error) (int, string) {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		paramErr  *paramError
	)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoTicket):
		return http.StatusNotFound, "not found"
	case errors.Is(err, ErrExists):
		return http.StatusConflict, "already in the system"
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidOrder):
		return http.StatusBadRequest, "invalid request"
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, "Malformed JSON"
	case errors.As(err, &paramErr):
		return http.StatusBadRequest, "invalid query parameter"
	}
	return http.StatusInternalServerError, "Unexpected error"
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}

		status, description := statusOf(err)
		w := box.GetResponse(ctx)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(PrettyError{
			Message:     err.Error(),
			Description: description,
		})
	}
}
