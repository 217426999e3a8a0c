// Package publish stores snapshot artifacts in a directory or an S3 bucket.
package publish

import (
	"context"
	"log/slog"

	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/snapshot"
)

// Store is the interface for artifact storage backends.
type Store interface {
	// Put stores body under name and returns where it was written.
	Put(ctx context.Context, name, contentType string, body []byte) (location string, err error)
}

// Result records where one artifact was stored.
type Result struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Location string `json:"location"`
}

// All stores every artifact that carries a body, in order. It stops at the
// first failure.
func All(ctx context.Context, store Store, artifacts []snapshot.Artifact) ([]Result, error) {
	logger := slog.Default().With("component", "publish")

	var out []Result
	for _, a := range artifacts {
		if a.Body == nil {
			continue
		}
		loc, err := store.Put(ctx, a.FileName, a.Type, a.Body)
		if err != nil {
			return out, errors.FromError(err, "E050").WithSubject(a.FileName)
		}
		logger.Debug("artifact stored", "id", a.ID, "location", loc, "bytes", len(a.Body))
		out = append(out, Result{ID: a.ID, FileName: a.FileName, Location: loc})
	}
	return out, nil
}
