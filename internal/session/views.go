package session

import (
	"context"

	"github.com/davidjes1/fitnesstracker/internal/identity"
	"github.com/davidjes1/fitnesstracker/internal/tracker"
)

// View is everything the dashboard renders.
type View struct {
	Identity *identity.Identity         `json:"identity"`
	Today    tracker.Date               `json:"today"`
	Summary  tracker.SummaryStats       `json:"summary"`
	Weekly   tracker.WeeklyBreakdown    `json:"weekly"`
	Records  tracker.PersonalRecordList `json:"records"`
	History  tracker.HistoryList        `json:"history"`
	Weights  tracker.WeightTrend        `json:"weights"`
}

type StatsView struct {
	Summary tracker.SummaryStats    `json:"summary"`
	Weekly  tracker.WeeklyBreakdown `json:"weekly"`
}

type ProgressView struct {
	Weights tracker.WeightTrend        `json:"weights"`
	Records tracker.PersonalRecordList `json:"records"`
}

func (s *Session) viewLocked() View {
	today := s.today()
	return View{
		Identity: s.identity,
		Today:    today,
		Summary:  tracker.ComputeSummaryStats(s.workouts, s.weights, today),
		Weekly:   tracker.ComputeWeeklyBreakdown(s.workouts, today, s.weeklyGoal),
		Records:  tracker.ComputePersonalRecords(s.workouts, s.personalRecordsLimit),
		History:  tracker.ComputeHistory(s.workouts),
		Weights:  tracker.ComputeWeightTrend(s.weights, s.weightHistoryLimit),
	}
}

func (s *Session) Dashboard() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return View{}, ErrNotSignedIn
	}
	return s.viewLocked(), nil
}

func (s *Session) Stats() (StatsView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return StatsView{}, ErrNotSignedIn
	}
	today := s.today()
	return StatsView{
		Summary: tracker.ComputeSummaryStats(s.workouts, s.weights, today),
		Weekly:  tracker.ComputeWeeklyBreakdown(s.workouts, today, s.weeklyGoal),
	}, nil
}

func (s *Session) Progress() (ProgressView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return ProgressView{}, ErrNotSignedIn
	}
	return ProgressView{
		Weights: tracker.ComputeWeightTrend(s.weights, s.weightHistoryLimit),
		Records: tracker.ComputePersonalRecords(s.workouts, s.personalRecordsLimit),
	}, nil
}

func (s *Session) History() (tracker.HistoryList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return nil, ErrNotSignedIn
	}
	return tracker.ComputeHistory(s.workouts), nil
}

func (s *Session) Workout(id int64) (tracker.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return tracker.Workout{}, ErrNotSignedIn
	}
	w, ok := tracker.FindWorkout(s.workouts, id)
	if !ok {
		return tracker.Workout{}, ErrWorkoutNotFound
	}
	return w, nil
}

// SignIn signs in anonymously, keeping an existing identity.
func (s *Session) SignIn(ctx context.Context) (View, error) {
	if _, err := s.provider.SignInAnonymous(ctx); err != nil {
		return View{}, err
	}
	s.countSignIn("anonymous")
	return s.Dashboard()
}

func (s *Session) SignInWithCredentials(ctx context.Context, creds identity.Credentials) (View, error) {
	provider, ok := s.provider.(identity.CredentialsProvider)
	if !ok {
		return View{}, ErrCredentialsUnsupported
	}
	if _, err := provider.SignInWithCredentials(ctx, creds); err != nil {
		return View{}, err
	}
	s.countSignIn("credentials")
	return s.Dashboard()
}

func (s *Session) SignOut(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}

func (s *Session) countSignIn(kind string) {
	if s.metrics != nil {
		s.metrics.CounterSignIns.WithLabelValues(kind).Inc()
	}
}
