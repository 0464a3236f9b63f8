package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

// SessionCommitter is the part of session.Manager the middleware needs.
type SessionCommitter interface {
	Load(r *http.Request) (*session.Session, error)
	Commit(ctx context.Context, w http.ResponseWriter, s *session.Session) error
}

// LoadSession attaches the request's session to the context and commits it
// right before the response headers go out.
func LoadSession(mgr SessionCommitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := mgr.Load(r)
			if err != nil {
				slog.ErrorContext(r.Context(), "session load failed", "error", err)
				response.Error(w, r, http.StatusInternalServerError, "SESSION_UNAVAILABLE", "session store unavailable", nil)
				return
			}
			r = r.WithContext(session.WithSession(r.Context(), sess))
			sw := &sessionWriter{ResponseWriter: w, r: r, mgr: mgr, sess: sess}
			next.ServeHTTP(sw, r)
			if !sw.wroteHeader {
				sw.commit()
			}
		})
	}
}

type sessionWriter struct {
	http.ResponseWriter
	r           *http.Request
	mgr         SessionCommitter
	sess        *session.Session
	committed   bool
	failed      bool
	wroteHeader bool
}

// commit reports whether the handler's response may still be written.
func (w *sessionWriter) commit() bool {
	if w.committed {
		return !w.failed
	}
	w.committed = true
	if err := w.mgr.Commit(w.r.Context(), w.ResponseWriter, w.sess); err != nil {
		w.failed = true
		slog.ErrorContext(w.r.Context(), "session commit failed", "error", err)
		response.Error(w.ResponseWriter, w.r, http.StatusInternalServerError, "SESSION_UNAVAILABLE", "session store unavailable", nil)
		return false
	}
	return true
}

func (w *sessionWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if !w.commit() {
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.failed {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
