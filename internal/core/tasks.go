package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/hunghnUIT/seft-203/internal/database"
	"github.com/hunghnUIT/seft-203/internal/models"
)

// taskItem is the storage shape of a task: the domain fields plus the
// synthetic owner::checked attribute backing the secondary index.
type taskItem struct {
	models.Task
	UserChecked string `dynamodbav:"userChecked"`
}

// TaskService is the owner-scoped repository over the task key space.
type TaskService struct {
	store  Store
	logger *zap.Logger
}

func NewTaskService(store Store, logger *zap.Logger) *TaskService {
	return &TaskService{store: store, logger: logger}
}

// Create persists a new unchecked task under a fresh random id and
// returns the full record.
func (t *TaskService) Create(ctx context.Context, email, note string) (*models.Task, error) {
	task := models.Task{
		UserID:    email,
		TaskID:    ksuid.New().String(),
		Note:      note,
		IsChecked: false,
	}
	item := taskItem{
		Task:        task,
		UserChecked: database.QueryableIndex(email, false),
	}
	if err := t.store.Put(ctx, database.TaskPartition, database.TaskKey(email, task.TaskID), item); err != nil {
		return nil, err
	}
	t.logger.Info("task created", zap.String("taskId", task.TaskID))
	return &task, nil
}

// List returns every task of the owner in engine key order.
func (t *TaskService) List(ctx context.Context, email string) ([]models.Task, error) {
	var items []taskItem
	if err := t.store.QueryPrefix(ctx, database.TaskPartition, database.TaskKeyPrefix(email), &items); err != nil {
		return nil, err
	}
	return toTasks(items), nil
}

// Get returns nil without error when the id does not exist for the
// owner; the handler decides what absence means.
func (t *TaskService) Get(ctx context.Context, email, taskID string) (*models.Task, error) {
	var item taskItem
	found, err := t.store.Get(ctx, database.TaskPartition, database.TaskKey(email, taskID), &item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &item.Task, nil
}

// Update patches note and/or isChecked. A checked-state change
// recomputes the index attribute inside the same patch so the index is
// never inconsistent with the flag. A missing id fails with NotFound.
func (t *TaskService) Update(ctx context.Context, email, taskID string, update models.TaskUpdate) (*models.Task, error) {
	fields := make(map[string]any)
	if update.Note != nil {
		fields["note"] = *update.Note
	}
	if update.IsChecked != nil {
		fields["isChecked"] = *update.IsChecked
		fields["userChecked"] = database.QueryableIndex(email, *update.IsChecked)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	var item taskItem
	if err := t.store.Patch(ctx, database.TaskPartition, database.TaskKey(email, taskID), fields, &item); err != nil {
		return nil, err
	}
	return &item.Task, nil
}

// Delete is idempotent; a missing id is not an error.
func (t *TaskService) Delete(ctx context.Context, email, taskID string) error {
	return t.store.Delete(ctx, database.TaskPartition, database.TaskKey(email, taskID))
}

// SearchByNote narrows to the owner's checked or unchecked subset via
// the secondary index, then filters on case-sensitive note containment.
// The engine cannot do substring search, so the filter runs here, over
// the narrowed subset only.
func (t *TaskService) SearchByNote(ctx context.Context, email string, checked bool, substring string) ([]models.Task, error) {
	var items []taskItem
	if err := t.store.QueryIndexPrefix(ctx, database.TaskPartition, database.QueryableIndex(email, checked), &items); err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(items))
	for _, item := range items {
		if strings.Contains(item.Note, substring) {
			tasks = append(tasks, item.Task)
		}
	}
	return tasks, nil
}

// CountByChecked materializes the owner's checked or unchecked subset
// and returns its size.
func (t *TaskService) CountByChecked(ctx context.Context, email string, checked bool) (int, error) {
	var items []taskItem
	if err := t.store.QueryIndexPrefix(ctx, database.TaskPartition, database.QueryableIndex(email, checked), &items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// Report combines both checked-state counts for the owner.
func (t *TaskService) Report(ctx context.Context, email string) (*models.TaskReport, error) {
	checked, err := t.CountByChecked(ctx, email, true)
	if err != nil {
		return nil, err
	}
	unchecked, err := t.CountByChecked(ctx, email, false)
	if err != nil {
		return nil, err
	}
	return &models.TaskReport{
		TotalCheckedTasks:   checked,
		TotalUncheckedTasks: unchecked,
	}, nil
}

// Import creates one task per non-empty CRLF-separated line and returns
// the number created.
func (t *TaskService) Import(ctx context.Context, email, body string) (int, error) {
	count := 0
	for _, line := range strings.Split(body, "\r\n") {
		if line == "" {
			continue
		}
		if _, err := t.Create(ctx, email, line); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func toTasks(items []taskItem) []models.Task {
	tasks := make([]models.Task, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, item.Task)
	}
	return tasks
}
