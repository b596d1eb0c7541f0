package lock

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLockerAcquireRelease(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, "test-key", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("first acquire = %v, %v; want true, nil", acquired, err)
	}

	acquired, err = locker.Acquire(ctx, "test-key", time.Minute)
	if err != nil || acquired {
		t.Errorf("second acquire = %v, %v; want false, nil", acquired, err)
	}

	held, err := locker.IsHeld(ctx, "test-key")
	if err != nil || !held {
		t.Errorf("IsHeld = %v, %v; want true, nil", held, err)
	}

	released, err := locker.Release(ctx, "test-key")
	if err != nil || !released {
		t.Errorf("Release = %v, %v; want true, nil", released, err)
	}

	released, err = locker.Release(ctx, "test-key")
	if err != nil || released {
		t.Errorf("releasing an unheld lock = %v, %v; want false, nil", released, err)
	}
}

func TestMemoryLockerIndependentKeys(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := locker.Acquire(ctx, "a", time.Minute); !ok {
		t.Fatal("acquiring key a should succeed")
	}
	if ok, _ := locker.Acquire(ctx, "b", time.Minute); !ok {
		t.Error("acquiring a different key should succeed")
	}
}

func TestMemoryLockerExpiry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := locker.Acquire(ctx, "test-key", 10*time.Millisecond); !ok {
		t.Fatal("acquire should succeed")
	}

	time.Sleep(20 * time.Millisecond)

	if held, _ := locker.IsHeld(ctx, "test-key"); held {
		t.Error("expired lock should not be held")
	}
	if ok, _ := locker.Acquire(ctx, "test-key", time.Minute); !ok {
		t.Error("acquiring an expired lock should succeed")
	}
}

func TestMemoryLockerAcquireWithRetry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	// Held with a short TTL: the retry loop should win once it expires.
	if ok, _ := locker.Acquire(ctx, "test-key", 15*time.Millisecond); !ok {
		t.Fatal("initial acquire should succeed")
	}

	acquired, err := locker.AcquireWithRetry(ctx, "test-key", time.Minute, 5, 10*time.Millisecond)
	if err != nil || !acquired {
		t.Errorf("AcquireWithRetry = %v, %v; want true, nil", acquired, err)
	}
}

func TestMemoryLockerAcquireWithRetryGivesUp(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := locker.Acquire(ctx, "test-key", time.Minute); !ok {
		t.Fatal("initial acquire should succeed")
	}

	acquired, err := locker.AcquireWithRetry(ctx, "test-key", time.Minute, 2, time.Millisecond)
	if err != nil || acquired {
		t.Errorf("AcquireWithRetry on a held lock = %v, %v; want false, nil", acquired, err)
	}
}

func TestMemoryLockerCancelledContext(t *testing.T) {
	locker := NewMemoryLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := locker.Acquire(ctx, "test-key", time.Minute); err == nil {
		t.Error("acquire with a cancelled context should fail")
	}
}
