package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tempoair/airservice/internal/api/middleware"
)

// maxBodyBytes bounds request bodies. Every endpoint takes a small JSON object.
const maxBodyBytes = 64 << 10

// errEmptyBody is returned by decodeJSON for a request without a body.
var errEmptyBody = errors.New("request body is empty")

// Subject returns the authenticated token subject for audit logging.
// This is a convenience wrapper around middleware.GetSubject.
func Subject(ctx context.Context) string {
	return middleware.GetSubject(ctx)
}

// decodeJSON reads exactly one JSON value from the request body into dst.
// Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}
