package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/davidjes1/fitnesstracker/internal/events"
	"github.com/davidjes1/fitnesstracker/internal/identity"
	"github.com/davidjes1/fitnesstracker/internal/storage"
	"github.com/davidjes1/fitnesstracker/internal/telemetry/metrics"
	"github.com/davidjes1/fitnesstracker/internal/telemetry/tracing"
	"github.com/davidjes1/fitnesstracker/internal/tracker"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	KeyWorkouts = "workouts"
	KeyWeights  = "weights"

	defaultPublishTimeout = 2 * time.Second
)

var (
	ErrNotSignedIn            = errors.New("not signed in")
	ErrWorkoutNotFound        = errors.New("workout not found")
	ErrCredentialsUnsupported = errors.New("identity provider does not support credentials")
	// ErrActionNotPerformed wraps storage failures of mutations. The
	// in-memory state is left as it was before the call.
	ErrActionNotPerformed = errors.New("action not performed")
)

type Params struct {
	Provider  identity.Provider
	Store     storage.Store
	Publisher events.Publisher
	Metrics   *metrics.Manager
	// PublishTimeout bounds each event publish, which runs while the
	// session is locked.
	PublishTimeout time.Duration
	// Now and Location decide the current instant and what "today" is.
	Now      func() time.Time
	Location *time.Location

	WeeklyGoal           int
	PersonalRecordsLimit int
	WeightHistoryLimit   int
}

// Session holds the signed in identity and its loaded collections.
// Collections are most recent first.
type Session struct {
	provider       identity.Provider
	store          storage.Store
	publisher      events.Publisher
	publishTimeout time.Duration
	metrics        *metrics.Manager
	now            func() time.Time
	loc            *time.Location
	ids            *tracker.IDGenerator

	weeklyGoal           int
	personalRecordsLimit int
	weightHistoryLimit   int

	mu       sync.Mutex
	identity *identity.Identity
	workouts []tracker.Workout
	weights  []tracker.WeightEntry

	// epoch is cancelled when the identity changes, aborting storage calls
	// made on behalf of the previous one. Guarded by its own lock so a
	// change can cancel while a mutation holds mu.
	epochMu     sync.Mutex
	epoch       context.Context
	epochCancel context.CancelFunc
}

// New creates a session and loads the data of the provider's current
// identity, if any.
func New(ctx context.Context, p Params) *Session {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Location == nil {
		p.Location = time.Local
	}
	if p.Publisher == nil {
		p.Publisher = events.NopPublisher{}
	}
	if p.PublishTimeout <= 0 {
		p.PublishTimeout = defaultPublishTimeout
	}

	s := &Session{
		provider:             p.Provider,
		store:                p.Store,
		publisher:            p.Publisher,
		metrics:              p.Metrics,
		now:                  p.Now,
		publishTimeout:       p.PublishTimeout,
		loc:                  p.Location,
		ids:                  tracker.NewIDGenerator(p.Now),
		weeklyGoal:           p.WeeklyGoal,
		personalRecordsLimit: p.PersonalRecordsLimit,
		weightHistoryLimit:   p.WeightHistoryLimit,
	}
	s.epoch, s.epochCancel = context.WithCancel(context.Background())

	p.Provider.OnChange(s.identityChanged)
	if id, ok := p.Provider.Current(); ok {
		s.identityChanged(ctx, id)
	}
	return s
}

func (s *Session) identityChanged(ctx context.Context, id *identity.Identity) {
	s.epochMu.Lock()
	s.epochCancel()
	s.epoch, s.epochCancel = context.WithCancel(context.Background())
	s.epochMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = id
	s.workouts = nil
	s.weights = nil
	if id != nil {
		s.loadLocked(ctx)
	}
}

// Close abandons pending storage calls.
func (s *Session) Close() {
	s.epochMu.Lock()
	defer s.epochMu.Unlock()
	s.epochCancel()
}

// opContext is ctx, also cancelled when the identity changes.
func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	s.epochMu.Lock()
	epoch := s.epoch
	s.epochMu.Unlock()

	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(epoch, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) Identity() (*identity.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.identity != nil
}

// Reload discards the in-memory collections and reads them again.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return ErrNotSignedIn
	}
	s.loadLocked(ctx)
	return nil
}

func (s *Session) loadLocked(ctx context.Context) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.load")
	defer span.End()

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	userID := s.identity.ID
	var workouts []tracker.Workout
	s.loadCollection(opCtx, userID, KeyWorkouts, &workouts)
	var weights []tracker.WeightEntry
	s.loadCollection(opCtx, userID, KeyWeights, &weights)

	s.workouts = workouts
	s.weights = weights
	s.ids.Observe(workouts)
	span.SetAttributes(
		attribute.Int("workouts", len(workouts)),
		attribute.Int("weights", len(weights)),
	)
}

// loadCollection leaves target empty when the key is missing or unreadable.
func (s *Session) loadCollection(ctx context.Context, userID, key string, target any) {
	raw, err := s.store.Get(ctx, userID, key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			log.Errorf("session: load %s for user %s: %s", key, userID, err)
			s.countStorageError("get")
		}
		return
	}
	if err := json.Unmarshal(raw, target); err != nil {
		log.Errorf("session: decode %s for user %s: %s", key, userID, err)
		s.countStorageError("decode")
	}
}

func (s *Session) persistLocked(ctx context.Context, key string, collection any) error {
	raw, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.store.Set(opCtx, s.identity.ID, key, raw); err != nil {
		log.Errorf("session: save %s for user %s: %s", key, s.identity.ID, err)
		s.countStorageError("set")
		return fmt.Errorf("%w: %w", ErrActionNotPerformed, err)
	}
	return nil
}

func (s *Session) today() tracker.Date {
	return tracker.DateOf(s.now().In(s.loc))
}

func (s *Session) SubmitWorkout(ctx context.Context, draft tracker.WorkoutDraft) (_ View, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.submit-workout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workout, err := tracker.ValidateWorkoutDraft(draft)
	if err != nil {
		s.countValidationFailure(err)
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return View{}, ErrNotSignedIn
	}

	workout.ID = s.ids.Next()
	workout.Timestamp = s.now().UTC()
	updated := tracker.PrependWorkout(s.workouts, workout)
	if err := s.persistLocked(ctx, KeyWorkouts, updated); err != nil {
		return View{}, err
	}
	s.workouts = updated

	if s.metrics != nil {
		s.metrics.CounterWorkoutsSaved.WithLabelValues(string(workout.Type)).Inc()
	}
	s.publish(ctx, events.TypeWorkoutSaved, workout)
	span.SetAttributes(attribute.Int64("workout.id", workout.ID))

	return s.viewLocked(), nil
}

func (s *Session) DeleteWorkout(ctx context.Context, id int64) (_ View, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.delete-workout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("workout.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return View{}, ErrNotSignedIn
	}

	updated, removed := tracker.RemoveWorkout(s.workouts, id)
	if !removed {
		return View{}, ErrWorkoutNotFound
	}
	if err := s.persistLocked(ctx, KeyWorkouts, updated); err != nil {
		return View{}, err
	}
	s.workouts = updated

	if s.metrics != nil {
		s.metrics.CounterWorkoutsDeleted.Inc()
	}
	s.publish(ctx, events.TypeWorkoutDeleted, map[string]int64{"id": id})

	return s.viewLocked(), nil
}

// SubmitWeight logs a weigh-in dated today.
func (s *Session) SubmitWeight(ctx context.Context, weight float64) (_ View, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.submit-weight")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := tracker.ValidateWeight(weight); err != nil {
		s.countValidationFailure(err)
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return View{}, ErrNotSignedIn
	}

	entry := tracker.WeightEntry{
		Weight:    weight,
		Date:      s.today(),
		Timestamp: s.now().UTC(),
	}
	updated := tracker.PrependWeight(s.weights, entry)
	if err := s.persistLocked(ctx, KeyWeights, updated); err != nil {
		return View{}, err
	}
	s.weights = updated

	if s.metrics != nil {
		s.metrics.CounterWeightsLogged.Inc()
	}
	s.publish(ctx, events.TypeWeightLogged, entry)

	return s.viewLocked(), nil
}

// ResetData deletes every key stored for the identity. On a partial
// failure the collections are reloaded to match what is left.
func (s *Session) ResetData(ctx context.Context) (_ View, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.reset-data")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return View{}, ErrNotSignedIn
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	keys, err := s.store.List(opCtx, s.identity.ID, "")
	if err != nil {
		s.countStorageError("list")
		return View{}, fmt.Errorf("%w: %w", ErrActionNotPerformed, err)
	}
	for _, key := range keys {
		if err := s.store.Delete(opCtx, s.identity.ID, key); err != nil {
			log.Errorf("session: reset, delete %s for user %s: %s", key, s.identity.ID, err)
			s.countStorageError("delete")
			s.loadLocked(ctx)
			return View{}, fmt.Errorf("%w: %w", ErrActionNotPerformed, err)
		}
	}
	span.SetAttributes(attribute.Int("deleted_keys", len(keys)))

	s.workouts = nil
	s.weights = nil
	return s.viewLocked(), nil
}

func (s *Session) publish(ctx context.Context, eventType string, payload any) {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		UserID:     s.identity.ID,
		OccurredAt: s.now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		log.Warnf("session: publish %s: %s", eventType, err)
	}
}

func (s *Session) countStorageError(op string) {
	if s.metrics != nil {
		s.metrics.CounterStorageErrors.WithLabelValues(op).Inc()
	}
}

func (s *Session) countValidationFailure(err error) {
	if s.metrics == nil {
		return
	}
	var vErr *tracker.ValidationError
	if errors.As(err, &vErr) {
		s.metrics.CounterValidationFailures.WithLabelValues(vErr.Code).Inc()
	}
}
