package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/redis/go-redis/v9"
)

const (
	dayKeyPrefix   = "songdesk:day:"      // Request list per broadcast day: songdesk:day:{YYYY-MM-DD}
	votedKeyPrefix = "songdesk:voted:"    // Songs a voter already voted for: songdesk:voted:{day}:{voter}
	dayTTL         = 100 * 24 * time.Hour // Lists older than this are gone
	maxTxRetries   = 10
)

// ErrConflict is returned when an optimistic update keeps losing the race.
var ErrConflict = errors.New("concurrent update conflict")

// ListRepository stores song request lists in Redis, one JSON list per day.
type ListRepository struct {
	client *redis.Client
}

// NewListRepository creates a new ListRepository
func NewListRepository(client *redis.Client) *ListRepository {
	return &ListRepository{client: client}
}

// Load returns the list for day. A missing list is empty, not an error.
func (r *ListRepository) Load(ctx context.Context, day string) ([]domain.SongRequest, error) {
	if !domain.ValidDay(day) {
		return []domain.SongRequest{}, nil
	}

	data, err := r.client.Get(ctx, r.dayKey(day)).Bytes()
	if err == redis.Nil {
		return []domain.SongRequest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	return decodeList(data)
}

// Exists reports whether a list for day has been created.
func (r *ListRepository) Exists(ctx context.Context, day string) (bool, error) {
	if !domain.ValidDay(day) {
		return false, domain.ErrInvalidDate
	}
	n, err := r.client.Exists(ctx, r.dayKey(day)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check list: %w", err)
	}
	return n > 0, nil
}

// Save overwrites the list for day.
func (r *ListRepository) Save(ctx context.Context, day string, list []domain.SongRequest) error {
	if !domain.ValidDay(day) {
		return domain.ErrInvalidDate
	}

	data, err := encodeList(list)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.dayKey(day), data, dayTTL).Err(); err != nil {
		return fmt.Errorf("failed to save list: %w", err)
	}
	return nil
}

// Update runs fn on the current list and stores its result atomically. The
// key is watched, so a concurrent writer makes the attempt start over. An
// error from fn aborts without writing.
func (r *ListRepository) Update(ctx context.Context, day string, fn func([]domain.SongRequest) ([]domain.SongRequest, error)) error {
	if !domain.ValidDay(day) {
		return domain.ErrInvalidDate
	}
	key := r.dayKey(day)

	txf := func(tx *redis.Tx) error {
		current := []domain.SongRequest{}
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return fmt.Errorf("failed to get list: %w", err)
		default:
			if current, err = decodeList(data); err != nil {
				return err
			}
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		encoded, err := encodeList(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, dayTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

// Days lists every stored day, newest first.
func (r *ListRepository) Days(ctx context.Context) ([]string, error) {
	var days []string
	iter := r.client.Scan(ctx, 0, dayKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		day := strings.TrimPrefix(iter.Val(), dayKeyPrefix)
		if domain.ValidDay(day) {
			days = append(days, day)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan lists: %w", err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// DeleteDay removes the list for day.
func (r *ListRepository) DeleteDay(ctx context.Context, day string) error {
	if !domain.ValidDay(day) {
		return domain.ErrInvalidDate
	}
	if err := r.client.Del(ctx, r.dayKey(day)).Err(); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return nil
}

// MarkVoted records that voter voted for id on day. It reports false when the
// vote was already recorded.
func (r *ListRepository) MarkVoted(ctx context.Context, day, voter string, id int) (bool, error) {
	key := r.votedKey(day, voter)

	pipe := r.client.TxPipeline()
	added := pipe.SAdd(ctx, key, id)
	pipe.Expire(ctx, key, dayTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record vote: %w", err)
	}
	return added.Val() == 1, nil
}

// UnmarkVoted forgets a vote recorded by MarkVoted.
func (r *ListRepository) UnmarkVoted(ctx context.Context, day, voter string, id int) error {
	if err := r.client.SRem(ctx, r.votedKey(day, voter), id).Err(); err != nil {
		return fmt.Errorf("failed to remove vote: %w", err)
	}
	return nil
}

func decodeList(data []byte) ([]domain.SongRequest, error) {
	list := []domain.SongRequest{}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal list: %w", err)
	}
	return list, nil
}

func encodeList(list []domain.SongRequest) ([]byte, error) {
	if list == nil {
		list = []domain.SongRequest{}
	}
	stored := make([]domain.SongRequest, len(list))
	for i, item := range list {
		item.URL = ""
		stored[i] = item
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal list: %w", err)
	}
	return data, nil
}

// Helper methods for key generation
func (r *ListRepository) dayKey(day string) string {
	return fmt.Sprintf("%s%s", dayKeyPrefix, day)
}

func (r *ListRepository) votedKey(day, voter string) string {
	return fmt.Sprintf("%s%s:%s", votedKeyPrefix, day, voter)
}
