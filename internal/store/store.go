// Package store persists public form submissions (prayer requests and
// contact messages) to either flat JSON files under the data directory or
// a relational database, selected by configuration.
package store

import (
	"context"
	"fmt"

	"churchsite/internal/model"
)

// Submissions is the persistence contract the web layer depends on.
type Submissions interface {
	SavePrayerRequest(ctx context.Context, pr model.PrayerRequest) error
	ListPrayerRequests(ctx context.Context) ([]model.PrayerRequest, error)
	SaveContactMessage(ctx context.Context, cm model.ContactMessage) error
	ListContactMessages(ctx context.Context) ([]model.ContactMessage, error)
	Close() error
}

// Open constructs the backend named by the configuration.
func Open(backend, dsn, dataDir string) (Submissions, error) {
	switch backend {
	case "json":
		return NewJSONStore(dataDir), nil
	case "sqlite", "postgres":
		return OpenDB(backend, dsn)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
}
