package timeline

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidReference = errors.New("invalid block reference")
	ErrDuplicateBlock   = errors.New("block listed more than once")
	ErrIncompleteOrder  = errors.New("order does not list every block of the channel")
	ErrInvalidDuration  = errors.New("duration must be a non-negative number of seconds")
	ErrNotFound         = errors.New("not found")
)

// apiError carries the HTTP status a handler should answer with.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string {
	return e.msg
}

func notFound(what string) error {
	return &apiError{status: http.StatusNotFound, msg: what + " not found"}
}

func badRequest(msg string) error {
	return &apiError{status: http.StatusBadRequest, msg: msg}
}

// statusFor maps domain and store errors onto an HTTP status.
func statusFor(err error) int {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		return ae.status
	case errors.Is(err, ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrDuplicateBlock),
		errors.Is(err, ErrInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, ErrIncompleteOrder):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
