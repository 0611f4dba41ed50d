package entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/progression"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetEntitlement(ctx context.Context, userID string, level models.LevelID) (models.LevelEntitlement, error) {
	args := m.Called(ctx, userID, level)
	return args.Get(0).(models.LevelEntitlement), args.Error(1)
}

func (m *RepoMock) UpdateEntitlement(ctx context.Context, e models.LevelEntitlement) (models.LevelEntitlement, error) {
	args := m.Called(ctx, e)
	if fn, ok := args.Get(0).(func(context.Context, models.LevelEntitlement) models.LevelEntitlement); ok {
		return fn(ctx, e), args.Error(1)
	}
	return args.Get(0).(models.LevelEntitlement), args.Error(1)
}

func (m *RepoMock) MarkLessonCompleted(ctx context.Context, userID string, level models.LevelID, day int, lesson models.LessonType) error {
	return m.Called(ctx, userID, level, day, lesson).Error(0)
}

func (m *RepoMock) CompletedLessons(ctx context.Context, userID string, level models.LevelID, day int) (models.DayTaskCompletion, error) {
	args := m.Called(ctx, userID, level, day)
	return args.Get(0).(models.DayTaskCompletion), args.Error(1)
}

type KeysMock struct{ mock.Mock }

func (m *KeysMock) AnswerKey(ctx context.Context, level models.LevelID, day int) (progression.AnswerKey, error) {
	args := m.Called(ctx, level, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(progression.AnswerKey), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) NotifyPause(ctx context.Context, n models.PauseNotification) error {
	return m.Called(ctx, n).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var purchased = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func entitlementAt(day int) models.LevelEntitlement {
	e := progression.NewEntitlement("u1", models.LevelA1, purchased, 60)
	e.CurrentDay = day
	e.Version = 3
	return e
}

func oneQuestionKey() progression.AnswerKey {
	return progression.AnswerKey{{ID: "q1", Correct: []int{0}}}
}

func newService(r *RepoMock, k *KeysMock, n *NotifierMock, now time.Time, opts Options) *Service {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	var notifier Notifier
	if n != nil {
		notifier = n
	}
	return New(r, k, notifier, progression.FixedClock{T: now}, opts, newNoopLogger())
}

func TestService_CheckAccess(t *testing.T) {
	now := purchased.Add(24 * time.Hour)

	tests := []struct {
		name    string
		level   models.LevelID
		day     int
		setup   func(r *RepoMock)
		want    progression.Decision
		wantErr error
	}{
		{
			name:  "open day",
			level: models.LevelA1,
			day:   3,
			setup: func(r *RepoMock) {
				r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()
			},
			want: progression.Decision{Allowed: true},
		},
		{
			name:  "locked day redirects",
			level: models.LevelA1,
			day:   7,
			setup: func(r *RepoMock) {
				r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()
			},
			want: progression.Decision{Reason: progression.ReasonDayLocked, RedirectDay: 3},
		},
		{
			name:  "not purchased",
			level: models.LevelA1,
			day:   1,
			setup: func(r *RepoMock) {
				r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).
					Return(models.LevelEntitlement{}, progression.ErrNotPurchased).Once()
			},
			wantErr: progression.ErrNotPurchased,
		},
		{
			name:    "day out of range",
			level:   models.LevelA1,
			day:     51,
			setup:   func(_ *RepoMock) {},
			wantErr: progression.ErrDayOutOfRange,
		},
		{
			name:    "unknown level",
			level:   models.LevelID("D1"),
			day:     1,
			setup:   func(_ *RepoMock) {},
			wantErr: progression.ErrUnknownLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(RepoMock)
			tt.setup(r)
			s := newService(r, new(KeysMock), new(NotifierMock), now, Options{})

			got, err := s.CheckAccess(context.Background(), "u1", tt.level, tt.day)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			r.AssertExpectations(t)
		})
	}
}

func TestService_CheckAccessAutoResumes(t *testing.T) {
	e := entitlementAt(4)
	paused, err := progression.RequestPause(e, 3, "", purchased)
	require.NoError(t, err)
	now := purchased.Add(4 * 24 * time.Hour)

	r := new(RepoMock)
	n := new(NotifierMock)
	r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(paused, nil).Once()
	r.On("UpdateEntitlement", mock.Anything, mock.MatchedBy(func(e models.LevelEntitlement) bool {
		return !e.IsVoluntaryPaused && e.PauseScheduledEndDate == nil && e.ExpiresAt.Equal(paused.ExpiresAt)
	})).Return(paused, nil).Once()
	n.On("NotifyPause", mock.Anything, mock.MatchedBy(func(m models.PauseNotification) bool {
		return m.Event == models.EventPauseResumed && m.Trigger == "auto"
	})).Return(nil).Once()

	s := newService(r, new(KeysMock), n, now, Options{})
	d, err := s.CheckAccess(context.Background(), "u1", models.LevelA1, 4)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	r.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestService_SubmitDailyTest(t *testing.T) {
	now := purchased.Add(24 * time.Hour)
	pass := models.DailyTestSubmission{Answers: map[string][]int{"q1": {0}}}
	fail := models.DailyTestSubmission{Answers: map[string][]int{"q1": {1}}}

	t.Run("pass advances day", func(t *testing.T) {
		r, k := new(RepoMock), new(KeysMock)
		k.On("AnswerKey", mock.Anything, models.LevelA1, 3).Return(oneQuestionKey(), nil).Once()
		r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()
		r.On("UpdateEntitlement", mock.Anything, mock.MatchedBy(func(e models.LevelEntitlement) bool {
			return e.CurrentDay == 4
		})).Return(entitlementAt(4), nil).Once()
		r.On("MarkLessonCompleted", mock.Anything, "u1", models.LevelA1, 3, models.LessonDailyTest).Return(nil).Once()

		res, err := newService(r, k, nil, now, Options{}).SubmitDailyTest(context.Background(), "u1", models.LevelA1, 3, pass)
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.Equal(t, 4, res.CurrentDay)
		r.AssertExpectations(t)
	})

	t.Run("fail keeps day", func(t *testing.T) {
		r, k := new(RepoMock), new(KeysMock)
		k.On("AnswerKey", mock.Anything, models.LevelA1, 3).Return(oneQuestionKey(), nil).Once()
		r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()

		res, err := newService(r, k, nil, now, Options{}).SubmitDailyTest(context.Background(), "u1", models.LevelA1, 3, fail)
		require.NoError(t, err)
		assert.False(t, res.Passed)
		assert.Equal(t, 3, res.CurrentDay)
		r.AssertNotCalled(t, "UpdateEntitlement", mock.Anything, mock.Anything)
	})

	t.Run("resubmission of earlier day is a no-op", func(t *testing.T) {
		r, k := new(RepoMock), new(KeysMock)
		k.On("AnswerKey", mock.Anything, models.LevelA1, 2).Return(oneQuestionKey(), nil).Once()
		r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()
		r.On("MarkLessonCompleted", mock.Anything, "u1", models.LevelA1, 2, models.LessonDailyTest).Return(nil).Once()

		res, err := newService(r, k, nil, now, Options{}).SubmitDailyTest(context.Background(), "u1", models.LevelA1, 2, pass)
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.Equal(t, 3, res.CurrentDay)
		r.AssertNotCalled(t, "UpdateEntitlement", mock.Anything, mock.Anything)
	})

	t.Run("locked day", func(t *testing.T) {
		r, k := new(RepoMock), new(KeysMock)
		r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()

		_, err := newService(r, k, nil, now, Options{}).SubmitDailyTest(context.Background(), "u1", models.LevelA1, 5, pass)
		assert.ErrorIs(t, err, progression.ErrDayLocked)
		k.AssertNotCalled(t, "AnswerKey", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("practice required", func(t *testing.T) {
		r, k := new(RepoMock), new(KeysMock)
		r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()
		r.On("CompletedLessons", mock.Anything, "u1", models.LevelA1, 3).
			Return(models.DayTaskCompletion{CompletedLessonTypes: []models.LessonType{models.LessonRead}}, nil).Once()

		_, err := newService(r, k, nil, now, Options{RequireFullPractice: true}).
			SubmitDailyTest(context.Background(), "u1", models.LevelA1, 3, pass)
		assert.ErrorIs(t, err, progression.ErrDayNotPracticed)
	})

	t.Run("missing content", func(t *testing.T) {
		r, k := new(RepoMock), new(KeysMock)
		r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()
		k.On("AnswerKey", mock.Anything, models.LevelA1, 3).Return(nil, progression.ErrContentNotFound).Once()

		_, err := newService(r, k, nil, now, Options{}).SubmitDailyTest(context.Background(), "u1", models.LevelA1, 3, pass)
		assert.ErrorIs(t, err, progression.ErrContentNotFound)
		r.AssertNotCalled(t, "UpdateEntitlement", mock.Anything, mock.Anything)
	})
}

func TestService_SubmitDailyTestAccessCheckedBeforeContent(t *testing.T) {
	now := purchased.Add(24 * time.Hour)
	pass := models.DailyTestSubmission{Answers: map[string][]int{"q1": {0}}}
	end := now.Add(48 * time.Hour)

	paused := entitlementAt(3)
	paused.IsVoluntaryPaused = true
	paused.PauseStartedAt = &now
	paused.PauseScheduledEndDate = &end

	tests := []struct {
		name    string
		stored  models.LevelEntitlement
		repoErr error
		now     time.Time
		wantErr error
	}{
		{
			name:    "не куплен",
			repoErr: progression.ErrNotPurchased,
			now:     now,
			wantErr: progression.ErrNotPurchased,
		},
		{
			name:    "заморожен",
			stored:  paused,
			now:     now,
			wantErr: progression.ErrPaused,
		},
		{
			name:    "срок истёк",
			stored:  entitlementAt(3),
			now:     purchased.Add(61 * 24 * time.Hour),
			wantErr: progression.ErrExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, k := new(RepoMock), new(KeysMock)
			r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(tt.stored, tt.repoErr).Once()

			_, err := newService(r, k, nil, tt.now, Options{}).SubmitDailyTest(context.Background(), "u1", models.LevelA1, 3, pass)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, progression.ErrContentNotFound)
			k.AssertNotCalled(t, "AnswerKey", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_SubmitDailyTestRetriesOnConflict(t *testing.T) {
	now := purchased.Add(24 * time.Hour)
	pass := models.DailyTestSubmission{Answers: map[string][]int{"q1": {0}}}

	r, k := new(RepoMock), new(KeysMock)
	k.On("AnswerKey", mock.Anything, models.LevelA1, 3).Return(oneQuestionKey(), nil).Once()
	r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Twice()
	r.On("UpdateEntitlement", mock.Anything, mock.Anything).
		Return(models.LevelEntitlement{}, progression.ErrConcurrentModification).Once()
	r.On("UpdateEntitlement", mock.Anything, mock.Anything).Return(entitlementAt(4), nil).Once()
	r.On("MarkLessonCompleted", mock.Anything, "u1", models.LevelA1, 3, models.LessonDailyTest).Return(nil).Once()

	res, err := newService(r, k, nil, now, Options{}).SubmitDailyTest(context.Background(), "u1", models.LevelA1, 3, pass)
	require.NoError(t, err)
	assert.Equal(t, 4, res.CurrentDay)
	r.AssertExpectations(t)
}

func TestService_RetriesExhausted(t *testing.T) {
	now := purchased.Add(24 * time.Hour)

	r := new(RepoMock)
	r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil)
	r.On("UpdateEntitlement", mock.Anything, mock.Anything).
		Return(models.LevelEntitlement{}, progression.ErrConcurrentModification)

	_, err := newService(r, nil, nil, now, Options{MaxRetries: 2}).Pause(context.Background(), "u1", models.LevelA1, 3, "")
	assert.ErrorIs(t, err, progression.ErrConcurrentModification)
	r.AssertNumberOfCalls(t, "UpdateEntitlement", 3)
}

func TestService_PauseAndResume(t *testing.T) {
	now := purchased.Add(24 * time.Hour)
	e := entitlementAt(2)

	r, n := new(RepoMock), new(NotifierMock)
	r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(e, nil).Once()
	r.On("UpdateEntitlement", mock.Anything, mock.MatchedBy(func(p models.LevelEntitlement) bool {
		return p.IsVoluntaryPaused && p.TotalPausedDays == 5
	})).Return(func(_ context.Context, p models.LevelEntitlement) models.LevelEntitlement { return p }, nil).Once()
	n.On("NotifyPause", mock.Anything, mock.MatchedBy(func(m models.PauseNotification) bool {
		return m.Event == models.EventPauseStarted && m.ScheduledTo != nil
	})).Return(errors.New("broker down")).Once()

	s := newService(r, nil, n, now, Options{})
	sum, err := s.Pause(context.Background(), "u1", models.LevelA1, 5, "travel")
	require.NoError(t, err, "notification failures must not fail the request")
	assert.True(t, sum.IsVoluntaryPaused)
	assert.Equal(t, 15, sum.RemainingPauseDays)
	assert.Equal(t, 1, sum.RemainingPauseAttempts)
	assert.True(t, sum.ExpiresAt.Equal(e.ExpiresAt.Add(5*24*time.Hour)))
	n.AssertExpectations(t)
}

func TestService_PauseRejected(t *testing.T) {
	now := purchased.Add(24 * time.Hour)
	e := entitlementAt(2)
	e.VoluntaryPauseAttempts = 2

	r := new(RepoMock)
	r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(e, nil).Once()

	_, err := newService(r, nil, nil, now, Options{}).Pause(context.Background(), "u1", models.LevelA1, 1, "")
	assert.ErrorIs(t, err, progression.ErrPauseBudgetExceeded)
	r.AssertNotCalled(t, "UpdateEntitlement", mock.Anything, mock.Anything)
}

func TestService_PauseNonPositiveDuration(t *testing.T) {
	now := purchased.Add(24 * time.Hour)

	for _, d := range []int{0, -1} {
		r := new(RepoMock)
		r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(2), nil).Once()

		_, err := newService(r, nil, nil, now, Options{}).Pause(context.Background(), "u1", models.LevelA1, d, "")
		assert.ErrorIs(t, err, progression.ErrPauseBudgetExceeded, "duration %d", d)
		r.AssertNotCalled(t, "UpdateEntitlement", mock.Anything, mock.Anything)
	}
}

func TestService_ResumeWithoutPause(t *testing.T) {
	now := purchased.Add(24 * time.Hour)

	r, n := new(RepoMock), new(NotifierMock)
	r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(2), nil).Once()

	sum, err := newService(r, nil, n, now, Options{}).Resume(context.Background(), "u1", models.LevelA1)
	require.NoError(t, err)
	assert.False(t, sum.IsVoluntaryPaused)
	n.AssertNotCalled(t, "NotifyPause", mock.Anything, mock.Anything)
}

func TestService_ResumeEarly(t *testing.T) {
	e := entitlementAt(2)
	paused, err := progression.RequestPause(e, 5, "", purchased)
	require.NoError(t, err)
	now := purchased.Add(2 * 24 * time.Hour)

	r, n := new(RepoMock), new(NotifierMock)
	r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(paused, nil).Once()
	r.On("UpdateEntitlement", mock.Anything, mock.Anything).
		Return(func(_ context.Context, p models.LevelEntitlement) models.LevelEntitlement { return p }, nil).Once()
	n.On("NotifyPause", mock.Anything, mock.MatchedBy(func(m models.PauseNotification) bool {
		return m.Event == models.EventPauseResumed && m.Trigger == "manual"
	})).Return(nil).Once()

	sum, err := newService(r, nil, n, now, Options{}).Resume(context.Background(), "u1", models.LevelA1)
	require.NoError(t, err)
	assert.False(t, sum.IsVoluntaryPaused)
	assert.True(t, sum.ExpiresAt.Equal(e.ExpiresAt.Add(2*24*time.Hour)))
	n.AssertExpectations(t)
}

func TestService_CompleteTask(t *testing.T) {
	now := purchased.Add(24 * time.Hour)

	t.Run("records lesson", func(t *testing.T) {
		r := new(RepoMock)
		r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()
		r.On("MarkLessonCompleted", mock.Anything, "u1", models.LevelA1, 2, models.LessonRead).Return(nil).Once()
		r.On("CompletedLessons", mock.Anything, "u1", models.LevelA1, 2).
			Return(models.DayTaskCompletion{Day: 2, CompletedLessonTypes: []models.LessonType{models.LessonRead}}, nil).Once()

		got, err := newService(r, nil, nil, now, Options{}).CompleteTask(context.Background(), "u1", models.LevelA1, 2, models.LessonRead)
		require.NoError(t, err)
		assert.True(t, got.Has(models.LessonRead))
	})

	t.Run("daily test rejected", func(t *testing.T) {
		_, err := newService(new(RepoMock), nil, nil, now, Options{}).
			CompleteTask(context.Background(), "u1", models.LevelA1, 2, models.LessonDailyTest)
		assert.ErrorIs(t, err, progression.ErrTerminalLessonType)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		_, err := newService(new(RepoMock), nil, nil, now, Options{}).
			CompleteTask(context.Background(), "u1", models.LevelA1, 2, models.LessonType("DANCE"))
		assert.ErrorIs(t, err, progression.ErrUnknownLessonType)
	})

	t.Run("locked day", func(t *testing.T) {
		r := new(RepoMock)
		r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(entitlementAt(3), nil).Once()

		_, err := newService(r, nil, nil, now, Options{}).CompleteTask(context.Background(), "u1", models.LevelA1, 9, models.LessonRead)
		assert.ErrorIs(t, err, progression.ErrDayLocked)
		r.AssertNotCalled(t, "MarkLessonCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Certificate(t *testing.T) {
	done := entitlementAt(models.CompletedDay)
	done.IsCompleted = true

	r := new(RepoMock)
	r.On("GetEntitlement", mock.Anything, "u1", models.LevelA1).Return(done, nil).Once()

	ok, err := newService(r, nil, nil, purchased, Options{}).Certificate(context.Background(), "u1", models.LevelA1)
	require.NoError(t, err)
	assert.True(t, ok)
}
