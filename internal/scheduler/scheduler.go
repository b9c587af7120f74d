// Package scheduler fires dose reminders when a medicine's time of day comes up.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/handler/dto"
)

const (
	// DefaultCheckInterval is how often the clock is compared to medicine times.
	DefaultCheckInterval = 30 * time.Second

	// DefaultRefreshInterval is how often the medicine list is reloaded.
	DefaultRefreshInterval = 5 * time.Minute

	// DefaultPromptTimeout bounds how long a prompt waits for an answer.
	DefaultPromptTimeout = 5 * time.Minute

	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler already running")

// API is the subset of the MediTrack client the scheduler needs.
type API interface {
	ListMedicines(ctx context.Context) ([]dto.MedicineResponse, error)
	Trigger(ctx context.Context, medicineID, at string) (*dto.AlertResponse, error)
	MarkTaken(ctx context.Context, alertID string) (*dto.AlertResponse, error)
	MarkMissed(ctx context.Context, alertID string) (*dto.AlertResponse, error)
}

// Answer is the user's response to a reminder.
type Answer int

const (
	// AnswerNone means the prompt was dismissed or timed out.
	AnswerNone Answer = iota
	AnswerTaken
	AnswerMissed
)

// Reminder is what the user is asked about.
type Reminder struct {
	AlertID    string
	MedicineID string
	Name       string
	Dosage     string
	Time       string
}

// Prompter asks the user whether a dose was taken. It must return when ctx
// is done.
type Prompter interface {
	Prompt(ctx context.Context, r Reminder) (Answer, error)
}

// State is the client-side lifecycle of one firing.
type State string

const (
	StatePending State = "pending"
	StateTaken   State = "taken"
	StateMissed  State = "missed"
)

// Firing is one reminder fired for a medicine at a given minute.
type Firing struct {
	Reminder
	Date    string
	State   State
	FiredAt time.Time

	// asking is set while the prompt is open; such a firing outlives the
	// date rollover.
	asking bool
}

// Config tunes a Scheduler. Zero values fall back to defaults.
type Config struct {
	CheckInterval   time.Duration
	RefreshInterval time.Duration
	PromptTimeout   time.Duration
	Now             func() time.Time
	Logger          *slog.Logger
}

// Scheduler polls the wall clock and fires reminders for matching medicines.
type Scheduler struct {
	api      API
	prompter Prompter
	logger   *slog.Logger
	now      func() time.Time

	checkInterval   time.Duration
	refreshInterval time.Duration
	promptTimeout   time.Duration

	mu        sync.Mutex
	medicines []dto.MedicineResponse
	fired     map[string]struct{}
	firings   map[string]*Firing

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	// prompts tracks the open prompts of the current run only.
	prompts *sync.WaitGroup
}

// New creates a scheduler.
func New(api API, prompter Prompter, cfg Config) *Scheduler {
	s := &Scheduler{
		api:             api,
		prompter:        prompter,
		logger:          cfg.Logger,
		now:             cfg.Now,
		checkInterval:   cfg.CheckInterval,
		refreshInterval: cfg.RefreshInterval,
		promptTimeout:   cfg.PromptTimeout,
		fired:           make(map[string]struct{}),
		firings:         make(map[string]*Firing),
		prompts:         new(sync.WaitGroup),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "scheduler")
	if s.now == nil {
		s.now = time.Now
	}
	if s.checkInterval <= 0 {
		s.checkInterval = DefaultCheckInterval
	}
	if s.refreshInterval <= 0 {
		s.refreshInterval = DefaultRefreshInterval
	}
	if s.promptTimeout <= 0 {
		s.promptTimeout = DefaultPromptTimeout
	}
	return s
}

// Start loads the medicine list and launches the polling loop. It returns
// once the loop is running. A failed initial load is logged, not returned.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.started = true
	s.done = make(chan struct{})
	s.prompts = new(sync.WaitGroup)
	ctx, s.cancel = context.WithCancel(ctx)
	done := s.done
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("initial medicine load failed", "error", err)
	}

	go s.run(ctx, done)
	s.logger.Info("scheduler started",
		"check_interval", s.checkInterval,
		"refresh_interval", s.refreshInterval,
	)
	return nil
}

// Stop cancels the loop and any open prompts, then waits for them to return
// or for ctx to expire. The scheduler counts as stopped, and may be started
// again, as soon as the loop has exited, even if a prompt is still winding
// down after ctx expired.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel, done, prompts := s.cancel, s.done, s.prompts
	s.mu.Unlock()

	cancel()

	finished := make(chan struct{})
	go func() {
		<-done
		s.mu.Lock()
		if s.done == done {
			s.started = false
		}
		s.mu.Unlock()
		prompts.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.Info("scheduler stopped")
	return nil
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Refresh reloads the medicine list from the API.
func (s *Scheduler) Refresh(ctx context.Context) error {
	meds, err := s.api.ListMedicines(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.medicines = meds
	s.mu.Unlock()
	s.logger.Debug("medicines refreshed", "count", len(meds))
	return nil
}

// Firings returns a snapshot of today's firings, plus any earlier one whose
// prompt is still open, ordered by fire time.
func (s *Scheduler) Firings() []Firing {
	s.mu.Lock()
	out := make([]Firing, 0, len(s.firings))
	for _, f := range s.firings {
		out = append(out, *f)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FiredAt.Equal(out[j].FiredAt) {
			return out[i].MedicineID < out[j].MedicineID
		}
		return out[i].FiredAt.Before(out[j].FiredAt)
	})
	return out
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	check := time.NewTicker(s.checkInterval)
	defer check.Stop()
	refresh := time.NewTicker(s.refreshInterval)
	defer refresh.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("medicine refresh failed", "error", err)
			}
		case <-check.C:
			s.tick(ctx)
		}
	}
}

// tick fires every medicine whose time matches the current minute, once per
// medicine and minute.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	clock := now.Format(clockLayout)
	date := now.Format(dateLayout)

	var due []dto.MedicineResponse
	s.mu.Lock()
	for k := range s.fired {
		if firedDate(k) != date {
			delete(s.fired, k)
		}
	}
	for k, f := range s.firings {
		if f.Date != date && !f.asking {
			delete(s.firings, k)
		}
	}
	for _, m := range s.medicines {
		if m.Time != clock {
			continue
		}
		key := firingKey(m.ID, date, clock)
		if _, ok := s.fired[key]; ok {
			continue
		}
		s.fired[key] = struct{}{}
		due = append(due, m)
	}
	prompts := s.prompts
	s.mu.Unlock()

	for _, m := range due {
		s.fire(ctx, prompts, m, date, clock, now)
	}
}

func (s *Scheduler) fire(ctx context.Context, prompts *sync.WaitGroup, m dto.MedicineResponse, date, clock string, now time.Time) {
	log := s.logger.With("medicine_id", m.ID, "time", clock)

	alert, err := s.api.Trigger(ctx, m.ID, clock)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("trigger failed", "error", err)
		}
		return
	}

	f := &Firing{
		Reminder: Reminder{
			AlertID:    alert.ID,
			MedicineID: m.ID,
			Name:       m.Name,
			Dosage:     m.Dosage,
			Time:       clock,
		},
		Date:    date,
		State:   StatePending,
		FiredAt: now,
		asking:  true,
	}
	s.mu.Lock()
	s.firings[firingKey(m.ID, date, clock)] = f
	s.mu.Unlock()
	log.Info("reminder fired", "alert_id", alert.ID)

	prompts.Add(1)
	go func() {
		defer prompts.Done()
		s.ask(ctx, f)
	}()
}

func (s *Scheduler) ask(ctx context.Context, f *Firing) {
	r := f.Reminder
	defer func() {
		s.mu.Lock()
		f.asking = false
		s.mu.Unlock()
	}()

	pctx, cancel := context.WithTimeout(ctx, s.promptTimeout)
	answer, err := s.prompter.Prompt(pctx, r)
	cancel()
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		s.logger.Warn("prompt failed", "alert_id", r.AlertID, "error", err)
	}

	var (
		state State
		call  func(context.Context, string) (*dto.AlertResponse, error)
	)
	switch answer {
	case AnswerTaken:
		state, call = StateTaken, s.api.MarkTaken
	case AnswerMissed:
		state, call = StateMissed, s.api.MarkMissed
	default:
		s.logger.Info("reminder left unanswered", "alert_id", r.AlertID)
		return
	}

	if _, err := call(ctx, r.AlertID); err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("confirm failed", "alert_id", r.AlertID, "state", state, "error", err)
		}
		return
	}

	s.mu.Lock()
	f.State = state
	s.mu.Unlock()
	s.logger.Info("reminder answered", "alert_id", r.AlertID, "state", state)
}

func firingKey(medicineID, date, clock string) string {
	return date + "|" + clock + "|" + medicineID
}

func firedDate(key string) string {
	if len(key) < len(dateLayout) {
		return ""
	}
	return key[:len(dateLayout)]
}
