package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/redis/go-redis/v9"
)

const (
	statusKey       = "songdesk:status"
	announcementKey = "songdesk:announcement"
	reviewKey       = "songdesk:review:last"
)

// SettingsRepository keeps the small singleton documents: pause status,
// announcement and the last moderation results.
type SettingsRepository struct {
	client *redis.Client
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(client *redis.Client) *SettingsRepository {
	return &SettingsRepository{client: client}
}

// Status returns the pause switch. Missing data means not paused.
func (r *SettingsRepository) Status(ctx context.Context) (domain.SystemStatus, error) {
	var st domain.SystemStatus
	found, err := r.get(ctx, statusKey, &st)
	if err != nil || !found {
		return domain.SystemStatus{}, err
	}
	return st, nil
}

func (r *SettingsRepository) SaveStatus(ctx context.Context, st domain.SystemStatus) error {
	return r.set(ctx, statusKey, st)
}

// Announcement returns the banner, disabled and empty when none is stored.
func (r *SettingsRepository) Announcement(ctx context.Context) (domain.Announcement, error) {
	var a domain.Announcement
	found, err := r.get(ctx, announcementKey, &a)
	if err != nil || !found {
		return domain.Announcement{}, err
	}
	return a, nil
}

func (r *SettingsRepository) SaveAnnouncement(ctx context.Context, a domain.Announcement) error {
	return r.set(ctx, announcementKey, a)
}

// ReviewResults returns the last stored moderation run, nil if none.
func (r *SettingsRepository) ReviewResults(ctx context.Context) ([]domain.ReviewResult, error) {
	var results []domain.ReviewResult
	if _, err := r.get(ctx, reviewKey, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *SettingsRepository) SaveReviewResults(ctx context.Context, results []domain.ReviewResult) error {
	return r.set(ctx, reviewKey, results)
}

func (r *SettingsRepository) get(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *SettingsRepository) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
