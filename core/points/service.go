package points

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

var (
	// errors
	ErrCacheMiss       = errors.New("leaderboard not cached")
	ErrStaleStandings  = errors.New("leaderboard changed while standings were computed")
	ErrStudentNotFound = core.NewNotFoundError("student not found")
)

type (
	Repository interface {
		// AddEntries saves entries and adds their amounts to the students' points, atomically.
		// Automatic awards already in the ledger are skipped.
		AddEntries(ctx context.Context, entries ...Entry) error
		QueryEntries(ctx context.Context, studentID string) ([]Entry, error)
		// Standings returns every active student (admins excluded), highest points first.
		Standings(ctx context.Context) ([]Standing, error)
	}

	// Leaderboard caches the standings.
	Leaderboard interface {
		// Top returns the n first standings, or ErrCacheMiss.
		Top(ctx context.Context, n int) ([]Standing, error)
		// Get returns the standing of a student, or ErrCacheMiss.
		Get(ctx context.Context, studentID string) (Standing, error)
		// Version returns the current version of the board. Invalidate bumps it.
		Version(ctx context.Context) (int64, error)
		// Store caches standings computed at version, or returns ErrStaleStandings
		// if the board was invalidated since.
		Store(ctx context.Context, version int64, standings []Standing) error
		Invalidate(ctx context.Context) error
	}

	Service interface {
		History(ctx context.Context, studentID string) ([]Entry, error)
		Grant(ctx context.Context, studentID string, g Grant) (Entry, error)
		Leaderboard(ctx context.Context, n int) ([]Standing, error)
		Standing(ctx context.Context, studentID string) (Standing, error)
		// Awarded must be called once entries have been saved.
		Awarded(ctx context.Context, entries ...Entry)
		// StudentsChanged must be called once students were created, deleted or changed
		// in a way the leaderboard shows.
		StudentsChanged(ctx context.Context)
	}

	service struct {
		repo   Repository
		board  Leaderboard
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

// NewService returns a points Service. board may be nil, standings are then always computed by repo.
func NewService(repo Repository, board Leaderboard, logger core.Logger) Service {
	return &service{repo: repo, board: board, logger: logger}
}

func (svc *service) History(ctx context.Context, studentID string) ([]Entry, error) {
	entries, err := svc.repo.QueryEntries(ctx, studentID)
	return entries, errors.Wrap(err, "querying point entries")
}

func (svc *service) Grant(ctx context.Context, studentID string, g Grant) (Entry, error) {
	entry := NewEntry(studentID, g.Amount, SourceManual, "", g.Reason)
	if err := svc.repo.AddEntries(ctx, entry); err != nil {
		return Entry{}, errors.Wrap(err, "adding point entry")
	}
	svc.Awarded(ctx, entry)
	return entry, nil
}

func (svc *service) Leaderboard(ctx context.Context, n int) ([]Standing, error) {
	if n <= 0 {
		n = DefaultLeaderboardSize
	} else if n > MaxLeaderboardSize {
		n = MaxLeaderboardSize
	}

	if svc.board != nil {
		top, err := svc.board.Top(ctx, n)
		if err == nil {
			return top, nil
		}
		if errors.Cause(err) != ErrCacheMiss {
			svc.logger.Warn(fmt.Sprintf("points.Leaderboard: reading cache: %v", err), err)
		}
	}

	standings, err := svc.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if len(standings) > n {
		standings = standings[:n]
	}
	return standings, nil
}

func (svc *service) Standing(ctx context.Context, studentID string) (Standing, error) {
	if svc.board != nil {
		st, err := svc.board.Get(ctx, studentID)
		if err == nil {
			return st, nil
		}
		if errors.Cause(err) != ErrCacheMiss {
			svc.logger.Warn(fmt.Sprintf("points.Standing: reading cache: %v", err), err)
		}
	}

	standings, err := svc.refresh(ctx)
	if err != nil {
		return Standing{}, err
	}
	for _, st := range standings {
		if st.StudentID == studentID {
			return st, nil
		}
	}
	return Standing{}, ErrStudentNotFound
}

// refresh computes the standings and caches them, unless the board was invalidated meanwhile.
func (svc *service) refresh(ctx context.Context) ([]Standing, error) {
	cache := svc.board != nil
	var version int64
	if cache {
		v, err := svc.board.Version(ctx)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("points.refresh: reading leaderboard version: %v", err), err)
			cache = false
		}
		version = v
	}

	standings, err := svc.repo.Standings(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying standings")
	}
	standings = Rank(standings)
	if cache {
		if err = svc.board.Store(ctx, version, standings); err != nil && errors.Cause(err) != ErrStaleStandings {
			svc.logger.Warn(fmt.Sprintf("points.refresh: caching standings: %v", err), err)
		}
	}
	return standings, nil
}

func (svc *service) Awarded(ctx context.Context, entries ...Entry) {
	if len(entries) > 0 {
		svc.invalidate(ctx, "points.Awarded")
	}
}

func (svc *service) StudentsChanged(ctx context.Context) {
	svc.invalidate(ctx, "points.StudentsChanged")
}

func (svc *service) invalidate(ctx context.Context, caller string) {
	if svc.board == nil {
		return
	}
	if err := svc.board.Invalidate(ctx); err != nil {
		svc.logger.Warn(fmt.Sprintf("%s: invalidating leaderboard: %v", caller, err), err)
	}
}
