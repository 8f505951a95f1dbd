package task

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tasktempo/internal/clock"
	"tasktempo/internal/datekey"
	"tasktempo/internal/model"
	"tasktempo/internal/recurrence"
	"tasktempo/internal/telemetry"
)

// Patch is a partial update to a task's fields.
// nil pointer => "no change"
// empty string for Category/ForDate => clear (set to nil / "")
type Patch struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Priority    *model.Priority   `json:"priority,omitempty"`
	Category    *string           `json:"category,omitempty"`
	ForDate     *string           `json:"forDate,omitempty"`
	Backlog     *bool             `json:"backlog,omitempty"`
	Recurrence  *model.Recurrence `json:"recurrence,omitempty"`

	// ClearRecurrence turns a recurring task back into a plain one.
	ClearRecurrence bool `json:"clearRecurrence,omitempty"`
}

// NewTaskInput carries the fields the add-task action accepts.
type NewTaskInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Priority    model.Priority    `json:"priority,omitempty"`
	Category    *string           `json:"category,omitempty"`
	ForDate     string            `json:"forDate,omitempty"`
	Backlog     bool              `json:"backlog,omitempty"`
	Recurrence  *model.Recurrence `json:"recurrence,omitempty"`
}

var ErrEmptyTitle = errors.New("task title is required")

// Service owns the in-memory task list and serializes every edit against
// it. All mutations rebuild tasks immutably, persist fire-and-forget, and
// return the updated list.
type Service struct {
	mu               sync.Mutex
	store            Store
	logger           *log.Logger
	clk              clock.Clock
	dailyStartMinute int
	events           telemetry.Repository

	tasks []model.Task
}

func NewService(store Store, logger *log.Logger, clk clock.Clock, dailyStartMinute int) (*Service, error) {
	if logger == nil {
		logger = log.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	s := &Service{
		store:            store,
		logger:           logger,
		clk:              clk,
		dailyStartMinute: dailyStartMinute,
	}
	if err := s.Rehydrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetRecorder attaches an optional telemetry sink.
func (s *Service) SetRecorder(r telemetry.Repository) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = r
}

// Rehydrate reloads the task list from storage and runs the load-time
// normalizer over it. Repairs are persisted immediately. Safe to call any
// number of times; normalization is idempotent.
func (s *Service) Rehydrate() error {
	loaded, err := s.store.Load()
	if err != nil {
		return err
	}
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	tasks, changed := NormalizeAll(loaded, now, s.dailyStartMinute)
	s.tasks = tasks
	if changed {
		s.persistLocked()
	}
	s.recordLocked(telemetry.EventRehydrated, telemetry.EventMetadata{"tasks": len(tasks), "repaired": changed})
	return nil
}

// Tasks returns a snapshot of the current list.
func (s *Service) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// persistLocked saves fire-and-forget: a failed save is logged, never
// surfaced, and the in-memory list stays authoritative.
func (s *Service) persistLocked() {
	if err := s.store.Save(s.tasks); err != nil {
		s.logger.Printf("task store save failed: %v", err)
	}
}

func (s *Service) recordLocked(t telemetry.EventType, md telemetry.EventMetadata) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordEvent(t, md); err != nil {
		s.logger.Printf("telemetry record failed: %v", err)
	}
}

func (s *Service) indexLocked(id int64) (int, bool) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// AddTask creates a task with a creation-timestamp-derived ID.
func (s *Service) AddTask(in NewTaskInput) ([]model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrEmptyTitle
	}
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	t := model.NewTask(strings.TrimSpace(in.Title), now)
	for { // timestamp IDs collide only under rapid-fire adds
		if _, exists := s.indexLocked(t.ID); !exists {
			break
		}
		t.ID++
	}
	t.Description = in.Description
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	t.Category = in.Category
	t.ForDate = datekey.Normalize(in.ForDate)
	t.Backlog = in.Backlog
	if in.Recurrence != nil {
		r := *in.Recurrence
		t.Recurrence = &r
		t.Status = ""
		t.Stages = nil
	}

	s.tasks = append(s.snapshotLocked(), t)
	s.persistLocked()
	s.recordLocked(telemetry.EventTaskCreated, telemetry.EventMetadata{"task_id": t.ID, "recurring": t.IsRecurring()})
	return s.snapshotLocked(), nil
}

// UpdateTaskFields applies a field patch. Structural stage edits go
// through ApplyStageEdit instead.
func (s *Service) UpdateTaskFields(id int64, p Patch) ([]model.Task, error) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexLocked(id)
	if !ok {
		return nil, ErrNotFound
	}
	t := s.tasks[i]

	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		if *p.Category == "" {
			t.Category = nil
		} else {
			t.Category = p.Category
		}
	}
	if p.ForDate != nil {
		t.ForDate = datekey.Normalize(*p.ForDate)
	}
	if p.Backlog != nil {
		t.Backlog = *p.Backlog
	}
	if p.ClearRecurrence {
		t.Recurrence = nil
	} else if p.Recurrence != nil {
		r := *p.Recurrence
		t.Recurrence = &r
	}

	t, _ = NormalizeTask(t, now, s.dailyStartMinute)
	t.UpdatedAt = now

	s.tasks = s.snapshotLocked()
	s.tasks[i] = t
	s.persistLocked()
	return s.snapshotLocked(), nil
}

// ToggleTaskStatus flips a task (or, for recurring tasks, one occurrence)
// between completed and pending. Stage-carrying tasks complete by marking
// every stage done so status derivation stays the single source of truth.
func (s *Service) ToggleTaskStatus(id int64, date string) ([]model.Task, error) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexLocked(id)
	if !ok {
		return nil, ErrNotFound
	}
	t := s.tasks[i]
	prevStreak := t.Streak

	var err error
	if t.IsRecurring() {
		t, err = s.toggleOccurrenceLocked(t, date, now)
	} else {
		t = s.toggleDirectLocked(t, now)
	}
	if err != nil {
		s.logger.Printf("toggle refused for task %d: %v", id, err)
		return s.snapshotLocked(), nil
	}

	s.tasks = s.snapshotLocked()
	s.tasks[i] = t
	s.persistLocked()
	if statusOf(t, date) == model.StatusCompleted {
		s.recordLocked(telemetry.EventTaskCompleted, telemetry.EventMetadata{"task_id": t.ID})
	}
	if t.Streak != prevStreak {
		s.recordLocked(telemetry.EventStreakChanged, telemetry.EventMetadata{"task_id": t.ID, "streak": t.Streak, "previous": prevStreak})
	}
	return s.snapshotLocked(), nil
}

func (s *Service) toggleOccurrenceLocked(t model.Task, date string, now time.Time) (model.Task, error) {
	if date == "" {
		date = t.ForDate
	}
	key := datekey.Normalize(date)
	if !datekey.IsCanonical(key) {
		return t, recurrence.ErrNoEditDate
	}
	inst := recurrence.ResolveInstance(t, key)
	completing := inst.Status != model.StatusCompleted

	if len(inst.Stages) == 0 {
		// Nothing to derive from: the stored status stands on its own.
		status := model.StatusPending
		patch := recurrence.InstancePatch{Status: &status, ClearCompletedAt: true}
		if completing {
			status = model.StatusCompleted
			patch = recurrence.InstancePatch{Status: &status, CompletedAt: &now, ClearCompletedAt: false}
		}
		t = recurrence.WriteInstance(t, key, patch)
		t.Streak = recurrence.ComputeStreak(t, now, s.dailyStartMinute)
		t.UpdatedAt = now
		return t, nil
	}

	edited := setAllStagesDone(inst.Stages, completing)
	t, err := recurrence.ApplyStageEdit(t, key, edited, model.SyncNone, now, s.dailyStartMinute)
	if err != nil {
		return t, err
	}
	if !completing {
		after := recurrence.ResolveInstance(t, key)
		if after.Status == model.StatusInProgress {
			// All stages were just reset; this is a fresh pending
			// occurrence, not a stale in-progress one.
			status := model.StatusPending
			t = recurrence.WriteInstance(t, key, recurrence.InstancePatch{Status: &status})
		}
	}
	return t, nil
}

func (s *Service) toggleDirectLocked(t model.Task, now time.Time) model.Task {
	completing := t.Status != model.StatusCompleted

	if len(t.Stages) == 0 {
		if completing {
			t.Status = model.StatusCompleted
			t.CompletedAt = &now
		} else {
			t.Status = model.StatusPending
			t.CompletedAt = nil
		}
		t.UpdatedAt = now
		return t
	}

	edited := setAllStagesDone(t.Stages, completing)
	t, _ = recurrence.ApplyStageEdit(t, "", edited, model.SyncNone, now, s.dailyStartMinute)
	if !completing && t.Status == model.StatusInProgress {
		// All stages were just reset; this is a fresh pending task, not a
		// stale in-progress one.
		t.Status = model.StatusPending
	}
	return t
}

func setAllStagesDone(stages []model.TaskStage, done bool) []model.TaskStage {
	out := make([]model.TaskStage, len(stages))
	for i, st := range stages {
		d := done
		st.IsCompleted = &d
		if done {
			st.Status = model.StageDone
		} else {
			st.Status = model.StageUpcoming
		}
		out[i] = st
	}
	return out
}

func statusOf(t model.Task, date string) model.Status {
	if !t.IsRecurring() {
		return t.Status
	}
	if date == "" {
		date = t.ForDate
	}
	return recurrence.ResolveInstance(t, date).Status
}

// ApplyStageEdit applies a stage-list edit, propagating across occurrences
// per the sync mode. A recurring task without a usable occurrence date is
// a caller contract violation: the edit is refused, logged, and the list
// returned unchanged.
func (s *Service) ApplyStageEdit(id int64, date string, stages []model.TaskStage, mode model.SyncMode) ([]model.Task, error) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexLocked(id)
	if !ok {
		return nil, ErrNotFound
	}
	prevStreak := s.tasks[i].Streak

	t, err := recurrence.ApplyStageEdit(s.tasks[i], date, stages, mode, now, s.dailyStartMinute)
	if err != nil {
		s.logger.Printf("stage edit refused for task %d: %v", id, err)
		return s.snapshotLocked(), nil
	}

	s.tasks = s.snapshotLocked()
	s.tasks[i] = t
	s.persistLocked()
	s.recordLocked(telemetry.EventStageEdit, telemetry.EventMetadata{
		"task_id":   t.ID,
		"date":      datekey.Normalize(date),
		"sync_mode": string(mode),
		"stages":    len(stages),
	})
	if statusOf(t, date) == model.StatusCompleted {
		s.recordLocked(telemetry.EventTaskCompleted, telemetry.EventMetadata{"task_id": t.ID})
	}
	if t.Streak != prevStreak {
		s.recordLocked(telemetry.EventStreakChanged, telemetry.EventMetadata{"task_id": t.ID, "streak": t.Streak, "previous": prevStreak})
	}
	return s.snapshotLocked(), nil
}

// DeleteTask removes a task and all its occurrence state.
func (s *Service) DeleteTask(id int64) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexLocked(id)
	if !ok {
		return nil, ErrNotFound
	}
	next := make([]model.Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:i]...)
	next = append(next, s.tasks[i+1:]...)
	s.tasks = next
	s.persistLocked()
	s.recordLocked(telemetry.EventTaskDeleted, telemetry.EventMetadata{"task_id": id})
	return s.snapshotLocked(), nil
}

// AddOrEditComment creates a comment when commentID is empty, otherwise
// edits the existing one. Comments are shared across every occurrence of a
// recurring task.
func (s *Service) AddOrEditComment(taskID int64, commentID, text string) ([]model.Task, error) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexLocked(taskID)
	if !ok {
		return nil, ErrNotFound
	}
	t := s.tasks[i]
	comments := make([]model.Comment, len(t.Comments))
	copy(comments, t.Comments)

	if commentID == "" {
		comments = append(comments, model.Comment{
			ID:        uuid.NewString(),
			Text:      text,
			CreatedAt: now,
			UpdatedAt: now,
		})
	} else {
		found := false
		for ci := range comments {
			if comments[ci].ID == commentID {
				comments[ci].Text = text
				comments[ci].UpdatedAt = now
				found = true
				break
			}
		}
		if !found {
			return nil, ErrCommentNotFound
		}
	}

	t.Comments = comments
	t.UpdatedAt = now
	s.tasks = s.snapshotLocked()
	s.tasks[i] = t
	s.persistLocked()
	s.recordLocked(telemetry.EventCommentAdded, telemetry.EventMetadata{"task_id": taskID})
	return s.snapshotLocked(), nil
}

func (s *Service) DeleteComment(taskID int64, commentID string) ([]model.Task, error) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexLocked(taskID)
	if !ok {
		return nil, ErrNotFound
	}
	t := s.tasks[i]

	comments := make([]model.Comment, 0, len(t.Comments))
	found := false
	for _, c := range t.Comments {
		if c.ID == commentID {
			found = true
			continue
		}
		comments = append(comments, c)
	}
	if !found {
		return nil, ErrCommentNotFound
	}

	t.Comments = comments
	t.UpdatedAt = now
	s.tasks = s.snapshotLocked()
	s.tasks[i] = t
	s.persistLocked()
	s.recordLocked(telemetry.EventCommentDeleted, telemetry.EventMetadata{"task_id": taskID})
	return s.snapshotLocked(), nil
}

// TogglePin flips a task's pin state.
func (s *Service) TogglePin(id int64) ([]model.Task, error) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexLocked(id)
	if !ok {
		return nil, ErrNotFound
	}
	t := s.tasks[i]
	t.Pinned = !t.Pinned
	t.UpdatedAt = now

	s.tasks = s.snapshotLocked()
	s.tasks[i] = t
	s.persistLocked()
	s.recordLocked(telemetry.EventPinToggled, telemetry.EventMetadata{"task_id": id, "pinned": t.Pinned})
	return s.snapshotLocked(), nil
}
