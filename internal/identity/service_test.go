package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFindOrCreateIdempotent(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if first.Mobile != "+911234567890" {
		t.Fatalf("expected normalized mobile, got %s", first.Mobile)
	}

	second, err := svc.FindOrCreate(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same identity, got %s and %s", first.ID, second.ID)
	}
}

func TestFindOrCreateNormalizesMobile(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, " +91 12345-67890 ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := svc.FindOrCreate(ctx, "+911234567890")
	if err != nil {
		t.Fatalf("resolve normalized: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("spellings of one number produced two identities")
	}
}

func TestFindOrCreateConcurrent(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	const callers = 16
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := svc.FindOrCreate(ctx, "+911234567890")
			ids[i] = user.ID
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("caller %d observed %s, caller 0 observed %s", i, ids[i], ids[0])
		}
	}
}

// conflictRepo simulates losing the creation race: the first lookup misses,
// the insert hits the uniqueness constraint, and the re-fetch sees the
// winner's record.
type conflictRepo struct {
	Repository
	winner User
	looked bool
}

func (r *conflictRepo) FindByMobile(_ context.Context, _ string) (User, error) {
	if !r.looked {
		r.looked = true
		return User{}, ErrNotFound
	}
	return r.winner, nil
}

func (r *conflictRepo) Create(_ context.Context, _ User) error {
	return ErrMobileTaken
}

func TestFindOrCreateRefetchesOnConflict(t *testing.T) {
	winner := User{ID: "winner-id", Mobile: "+911234567890", CreatedAt: time.Now().UTC()}
	svc := NewService(&conflictRepo{winner: winner})

	user, err := svc.FindOrCreate(context.Background(), "+911234567890")
	if err != nil {
		t.Fatalf("expected the conflict to resolve internally, got %v", err)
	}
	if user.ID != winner.ID {
		t.Fatalf("expected winner's identity %s, got %s", winner.ID, user.ID)
	}
}

type failingRepo struct {
	Repository
	err error
}

func (r *failingRepo) FindByMobile(_ context.Context, _ string) (User, error) {
	return User{}, r.err
}

func TestFindOrCreateLookupFailure(t *testing.T) {
	storeErr := errors.New("store unavailable")
	svc := NewService(&failingRepo{err: storeErr})

	_, err := svc.FindOrCreate(context.Background(), "+911234567890")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
