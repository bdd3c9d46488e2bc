package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidFireKind   = errors.New("model: invalid fire kind")
	ErrInvalidEntityKind = errors.New("model: invalid entity kind")
)

// FireKind distinguishes the lead-time reminder from the at-time firing of one occurrence.
type FireKind string

const (
	FireReminder FireKind = "reminder"
	FireAtTime   FireKind = "at-time"
)

func (k FireKind) IsValid() bool {
	switch k {
	case FireReminder, FireAtTime:
		return true
	default:
		return false
	}
}

type EntityKind string

const (
	EntityGoal EntityKind = "goal"
	EntityTask EntityKind = "task"
)

func (k EntityKind) IsValid() bool {
	switch k {
	case EntityGoal, EntityTask:
		return true
	default:
		return false
	}
}

// Occurrence identifies one firing: an entity on a calendar day for a fire kind.
// ScheduledTime is part of goal keys so a changed time is not suppressed by an old marker.
type Occurrence struct {
	Entity        EntityKind
	EntityID      string
	Day           time.Time
	Kind          FireKind
	ScheduledTime string
}

func (o Occurrence) Validate() error {
	if !o.Entity.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEntityKind, o.Entity)
	}
	if !o.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFireKind, o.Kind)
	}
	if strings.TrimSpace(o.EntityID) == "" {
		return errors.New("model: occurrence entity id is required")
	}
	if o.Day.IsZero() {
		return errors.New("model: occurrence day is required")
	}
	return nil
}

// Key is the dedup marker key, e.g. "goal:<id>:2025-03-04:reminder:07:30".
func (o Occurrence) Key() string {
	parts := []string{string(o.Entity), o.EntityID, FormatDate(o.Day), string(o.Kind)}
	if o.Entity == EntityGoal {
		parts = append(parts, o.ScheduledTime)
	}
	return strings.Join(parts, ":")
}

// LeadText renders a lead time as "1 hour", "2 hours", "1 minute" or "45 minutes".
func LeadText(minutes int) string {
	if minutes > 0 && minutes%60 == 0 {
		hours := minutes / 60
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
