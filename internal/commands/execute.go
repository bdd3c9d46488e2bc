package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Goal   func(GoalArgs) (Result, error)
	Task   func(TaskArgs) (Result, error)
	Done   func(TargetArgs) (Result, error)
	Toggle func(TargetArgs) (Result, error)
	Delete func(TargetArgs) (Result, error)
	Pause  func(TargetArgs) (Result, error)
	Resume func(TargetArgs) (Result, error)
	Show   func(ShowArgs) (Result, error)
	Edit   func(EditArgs) (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeGoal:
		if handlers.Goal == nil {
			return Result{}, missing("goal")
		}
		return handlers.Goal(*cmd.Goal)
	case TypeTask:
		if handlers.Task == nil {
			return Result{}, missing("task")
		}
		return handlers.Task(*cmd.Task)
	case TypeDone, TypeToggle, TypeDelete, TypePause, TypeResume:
		handler := targetHandler(cmd.Type, handlers)
		if handler == nil {
			return Result{}, missing(string(cmd.Type))
		}
		return handler(*cmd.Target)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, missing("show")
		}
		return handlers.Show(*cmd.Show)
	case TypeEdit:
		if handlers.Edit == nil {
			return Result{}, missing("edit")
		}
		return handlers.Edit(*cmd.Edit)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func targetHandler(kind Type, handlers Handlers) func(TargetArgs) (Result, error) {
	switch kind {
	case TypeDone:
		return handlers.Done
	case TypeToggle:
		return handlers.Toggle
	case TypeDelete:
		return handlers.Delete
	case TypePause:
		return handlers.Pause
	case TypeResume:
		return handlers.Resume
	default:
		return nil
	}
}
