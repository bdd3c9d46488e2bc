package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
)

const MarkerPrefix = "notif:"

// MarkerStore persists dedup markers. The value is the occurrence day, which is what
// eviction compares against.
type MarkerStore struct {
	kv  KV
	loc *time.Location
}

func NewMarkerStore(kv KV, loc *time.Location) *MarkerStore {
	if loc == nil {
		loc = time.Local
	}
	return &MarkerStore{kv: kv, loc: loc}
}

func (m *MarkerStore) Seen(ctx context.Context, key string) (bool, error) {
	_, err := m.kv.Get(ctx, MarkerPrefix+key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (m *MarkerStore) Mark(ctx context.Context, key string, day time.Time) error {
	return m.kv.Set(ctx, MarkerPrefix+key, model.FormatDate(day))
}

// EvictBefore deletes markers whose day is before cutoff's calendar day. Markers with an
// unreadable day are deleted too.
func (m *MarkerStore) EvictBefore(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := m.kv.List(ctx, MarkerPrefix)
	if err != nil {
		return 0, fmt.Errorf("list markers: %w", err)
	}
	limit := model.DayStart(cutoff.In(m.loc))
	evicted := 0
	for _, entry := range entries {
		day, parseErr := model.ParseDate(entry.Value, m.loc)
		if parseErr == nil && !day.Before(limit) {
			continue
		}
		if err := m.kv.Delete(ctx, entry.Key); err != nil && !errors.Is(err, ErrNotFound) {
			return evicted, fmt.Errorf("delete marker %s: %w", entry.Key, err)
		}
		evicted++
	}
	return evicted, nil
}

// Count reports how many markers are stored.
func (m *MarkerStore) Count(ctx context.Context) (int, error) {
	entries, err := m.kv.List(ctx, MarkerPrefix)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
