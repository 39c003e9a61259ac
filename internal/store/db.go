package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"churchsite/internal/model"
)

// prayerRequestRecord is the relational shape of a prayer request.
type prayerRequestRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string
	Request   string `gorm:"not null"`
	Private   bool
	Locale    string
	CreatedAt time.Time `gorm:"index"`
}

func (prayerRequestRecord) TableName() string { return "prayer_requests" }

type contactMessageRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	Subject   string
	Message   string `gorm:"not null"`
	Locale    string
	CreatedAt time.Time `gorm:"index"`
}

func (contactMessageRecord) TableName() string { return "contact_messages" }

// DBStore persists submissions through gorm (sqlite or postgres).
type DBStore struct {
	db *gorm.DB
}

// OpenDB opens the given backend, runs migrations and returns the store.
func OpenDB(backend, dsn string) (*DBStore, error) {
	var dialector gorm.Dialector
	switch backend {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported database backend %q", backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", backend, err)
	}

	if err := db.AutoMigrate(&prayerRequestRecord{}, &contactMessageRecord{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &DBStore{db: db}, nil
}

func (s *DBStore) SavePrayerRequest(ctx context.Context, pr model.PrayerRequest) error {
	rec := prayerRequestRecord{
		ID:        pr.ID,
		Name:      pr.Name,
		Email:     pr.Email,
		Request:   pr.Request,
		Private:   pr.Private,
		Locale:    pr.Locale,
		CreatedAt: pr.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("store: save prayer request: %w", err)
	}
	return nil
}

func (s *DBStore) ListPrayerRequests(ctx context.Context) ([]model.PrayerRequest, error) {
	var recs []prayerRequestRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("store: list prayer requests: %w", err)
	}
	out := make([]model.PrayerRequest, 0, len(recs))
	for _, r := range recs {
		out = append(out, model.PrayerRequest{
			ID: r.ID, Name: r.Name, Email: r.Email, Request: r.Request,
			Private: r.Private, Locale: r.Locale, CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *DBStore) SaveContactMessage(ctx context.Context, cm model.ContactMessage) error {
	rec := contactMessageRecord{
		ID:        cm.ID,
		Name:      cm.Name,
		Email:     cm.Email,
		Subject:   cm.Subject,
		Message:   cm.Message,
		Locale:    cm.Locale,
		CreatedAt: cm.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("store: save contact message: %w", err)
	}
	return nil
}

func (s *DBStore) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	var recs []contactMessageRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("store: list contact messages: %w", err)
	}
	out := make([]model.ContactMessage, 0, len(recs))
	for _, r := range recs {
		out = append(out, model.ContactMessage{
			ID: r.ID, Name: r.Name, Email: r.Email, Subject: r.Subject,
			Message: r.Message, Locale: r.Locale, CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *DBStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
