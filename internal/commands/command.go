package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
)

type Type string

const (
	TypeGoal   Type = "goal"
	TypeDone   Type = "done"
	TypeTask   Type = "task"
	TypeToggle Type = "toggle"
	TypeDelete Type = "delete"
	TypePause  Type = "pause"
	TypeResume Type = "resume"
	TypeShow   Type = "show"
	TypeEdit   Type = "edit"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

const defaultGoalDays = 30

// GoalArgs come from "/goal Exercise days:mon,wed,fri for:60 at:7:30 AM desc:Warm up first".
type GoalArgs struct {
	Title       string
	Description string
	Days        []time.Weekday
	Duration    int
	Time        string
}

// TaskArgs come from "/task Dentist on:tomorrow at:3:00 PM remind:30 repeat:weekly weeks:4 days:tue".
type TaskArgs struct {
	Title         string
	Description   string
	On            string
	Time          string
	Remind        bool
	RemindMinutes int
	Repeat        model.Recurrence
	Weeks         int
	Days          []time.Weekday
}

// TargetArgs name an item by its 1-based row in the current list or by id prefix.
type TargetArgs struct {
	Target string
}

type ShowArgs struct {
	Subject string
}

// EditArgs come from "/edit 2 title:Morning run at:6:45 AM desc:-". Nil fields are left
// unchanged. "desc:-" clears the description and "at:none" clears the time.
type EditArgs struct {
	Target        string
	Title         *string
	Description   *string
	Time          *string
	Days          []time.Weekday
	Duration      int
	Remind        *bool
	RemindMinutes int
}

// GoalOnly reports whether the edit sets fields that only goals have.
func (a EditArgs) GoalOnly() bool {
	return len(a.Days) > 0 || a.Duration > 0
}

// TaskOnly reports whether the edit sets fields that only tasks have.
func (a EditArgs) TaskOnly() bool {
	return a.Remind != nil
}

type Command struct {
	Type   Type
	Raw    string
	Goal   *GoalArgs
	Task   *TaskArgs
	Target *TargetArgs
	Show   *ShowArgs
	Edit   *EditArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeGoal:
		return parseGoal(input, args)
	case TypeTask:
		return parseTask(input, args)
	case TypeDone, TypeToggle, TypeDelete, TypePause, TypeResume:
		return parseTarget(input, Type(head), args)
	case TypeShow:
		return parseShow(input, args)
	case TypeEdit:
		return parseEdit(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// textKeys take free text: their value runs until the next known key.
var textKeys = map[string]bool{"title": true, "desc": true}

// splitArgs separates free text from key:value options. A value for "at" absorbs a
// following AM/PM token so "at:7:30 PM" works unquoted.
func splitArgs(args []string, keys ...string) (string, map[string]string, error) {
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	opts := make(map[string]string)
	text := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		key, value, found := strings.Cut(arg, ":")
		key = strings.ToLower(key)
		if !found || !known[key] {
			text = append(text, arg)
			continue
		}
		if textKeys[key] {
			for i+1 < len(args) && !isKnownKey(args[i+1], known) {
				value = strings.TrimSpace(value + " " + args[i+1])
				i++
			}
		}
		if value == "" {
			return "", nil, invalid("%s: requires a value", key)
		}
		if key == "at" && i+1 < len(args) {
			next := strings.ToUpper(args[i+1])
			if next == "AM" || next == "PM" {
				value += " " + next
				i++
			}
		}
		opts[key] = value
	}
	return strings.TrimSpace(strings.Join(text, " ")), opts, nil
}

func isKnownKey(arg string, known map[string]bool) bool {
	key, _, found := strings.Cut(arg, ":")
	return found && known[strings.ToLower(key)]
}

func parseGoal(raw string, args []string) (Command, error) {
	title, opts, err := splitArgs(args, "days", "for", "at", "desc")
	if err != nil {
		return Command{}, err
	}
	if title == "" {
		return Command{}, invalid("goal requires a title")
	}
	out := GoalArgs{Title: title, Description: opts["desc"], Duration: defaultGoalDays}

	days, err := model.ParseWeekdays(valueOr(opts["days"], "daily"))
	if err != nil {
		return Command{}, invalid("days: %v", err)
	}
	out.Days = days

	if v, ok := opts["for"]; ok {
		n, convErr := parseDays(v)
		if convErr != nil {
			return Command{}, convErr
		}
		out.Duration = n
	}
	if v, ok := opts["at"]; ok {
		tod, parseErr := model.ParseTimeOfDay(v)
		if parseErr != nil {
			return Command{}, invalid("at: %v", parseErr)
		}
		out.Time = tod.Canonical()
	}
	return Command{Type: TypeGoal, Raw: raw, Goal: &out}, nil
}

func parseTask(raw string, args []string) (Command, error) {
	title, opts, err := splitArgs(args, "on", "at", "remind", "repeat", "weeks", "days", "desc")
	if err != nil {
		return Command{}, err
	}
	if title == "" {
		return Command{}, invalid("task requires a title")
	}
	out := TaskArgs{Title: title, Description: opts["desc"], On: valueOr(opts["on"], "today"), Repeat: model.RecurrenceNone}

	if v, ok := opts["at"]; ok {
		tod, parseErr := model.ParseTimeOfDay(v)
		if parseErr != nil {
			return Command{}, invalid("at: %v", parseErr)
		}
		out.Time = tod.Canonical()
	}
	if v, ok := opts["remind"]; ok {
		out.Remind, out.RemindMinutes, err = parseRemind(v)
		if err != nil {
			return Command{}, err
		}
		if out.Remind && out.Time == "" {
			return Command{}, invalid("remind: requires at:")
		}
	}
	if v, ok := opts["repeat"]; ok {
		out.Repeat = model.Recurrence(strings.ToLower(v))
		if !out.Repeat.IsValid() {
			return Command{}, invalid("repeat: expected none, daily or weekly, got %q", v)
		}
	}
	if out.Repeat != model.RecurrenceNone {
		out.Weeks = 1
		if v, ok := opts["weeks"]; ok {
			n, convErr := strconv.Atoi(v)
			if convErr != nil || n <= 0 {
				return Command{}, invalid("weeks: expected a positive number, got %q", v)
			}
			out.Weeks = n
		}
	}
	if out.Repeat == model.RecurrenceWeekly {
		v, ok := opts["days"]
		if !ok {
			return Command{}, invalid("weekly repeat requires days:")
		}
		days, parseErr := model.ParseWeekdays(v)
		if parseErr != nil {
			return Command{}, invalid("days: %v", parseErr)
		}
		out.Days = days
	}
	return Command{Type: TypeTask, Raw: raw, Task: &out}, nil
}

func parseDays(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(v), "d"))
	if err != nil || n <= 0 {
		return 0, invalid("for: expected a positive number of days, got %q", v)
	}
	return n, nil
}

// parseRemind accepts on/off/yes/no/true/false or a lead time like "30" or "30m".
func parseRemind(v string) (bool, int, error) {
	switch strings.ToLower(v) {
	case "off", "no", "false":
		return false, 0, nil
	case "on", "yes", "true":
		return true, 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(v), "m"))
	if err != nil || n <= 0 {
		return false, 0, invalid("remind: expected minutes or on/off, got %q", v)
	}
	return true, n, nil
}

func parseEdit(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("edit requires a target (row number, id or title)")
	}
	rest, opts, err := splitArgs(args[1:], "title", "desc", "at", "days", "for", "remind")
	if err != nil {
		return Command{}, err
	}
	if rest != "" {
		return Command{}, invalid("edit: unexpected text %q, use key:value fields", rest)
	}
	if len(opts) == 0 {
		return Command{}, invalid("edit requires at least one of title:, desc:, at:, days:, for:, remind:")
	}

	out := EditArgs{Target: args[0]}
	if v, ok := opts["title"]; ok {
		out.Title = &v
	}
	if v, ok := opts["desc"]; ok {
		if v == "-" {
			v = ""
		}
		out.Description = &v
	}
	if v, ok := opts["at"]; ok {
		clock := ""
		if lower := strings.ToLower(v); lower != "none" && lower != "-" {
			tod, parseErr := model.ParseTimeOfDay(v)
			if parseErr != nil {
				return Command{}, invalid("at: %v", parseErr)
			}
			clock = tod.Canonical()
		}
		out.Time = &clock
	}
	if v, ok := opts["days"]; ok {
		days, parseErr := model.ParseWeekdays(v)
		if parseErr != nil {
			return Command{}, invalid("days: %v", parseErr)
		}
		out.Days = days
	}
	if v, ok := opts["for"]; ok {
		if out.Duration, err = parseDays(v); err != nil {
			return Command{}, err
		}
	}
	if v, ok := opts["remind"]; ok {
		remind, minutes, remindErr := parseRemind(v)
		if remindErr != nil {
			return Command{}, remindErr
		}
		out.Remind = &remind
		out.RemindMinutes = minutes
	}
	if out.GoalOnly() && out.TaskOnly() {
		return Command{}, invalid("edit: days:/for: apply to goals and remind: to tasks, not both")
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &out}, nil
}

func parseTarget(raw string, kind Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires one target (row number or id)", kind)
	}
	return Command{Type: kind, Raw: raw, Target: &TargetArgs{Target: args[0]}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("show requires a subject")
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: strings.ToLower(strings.Join(args, " "))}}, nil
}

// ResolveDate turns "today", "tomorrow", a weekday name (next occurrence, today
// included) or YYYY-MM-DD into a local midnight.
func ResolveDate(raw string, now time.Time) (time.Time, error) {
	today := model.DayStart(now)
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	if days, err := model.ParseWeekdays(value); err == nil && len(days) == 1 {
		offset := (int(days[0]) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, offset), nil
	}
	day, err := model.ParseDate(value, now.Location())
	if err != nil {
		return time.Time{}, invalid("on: expected today, tomorrow, a weekday or YYYY-MM-DD, got %q", raw)
	}
	return day, nil
}

func valueOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
