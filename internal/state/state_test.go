package state

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestClearRemovesEveryField(t *testing.T) {
	s := NewStore()

	s.SetState(1, AwaitingPhoto)
	s.Update(1, func(sess *Session) {
		sess.Product = ProductDraft{Name: "Widget", Price: decimal.NewFromInt(10), Quantity: 3}
		sess.Purchase.ProductNumber = 12345678
	})

	s.Clear(1)

	if got := s.State(1); got != Idle {
		t.Fatalf("expected idle, got %q", got)
	}
	sess := s.Get(1)
	if sess.Product.Name != "" || !sess.Product.Price.IsZero() || sess.Product.Quantity != 0 || sess.Purchase.ProductNumber != 0 {
		t.Fatalf("stale fields after clear: %+v", sess)
	}
	if s.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", s.Len())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Update(1, func(sess *Session) { sess.Product.Name = "Widget" })

	sess := s.Get(1)
	sess.Product.Name = "changed"

	if got := s.Get(1).Product.Name; got != "Widget" {
		t.Fatalf("store mutated through copy: %q", got)
	}
}

func TestSetIdleDropsSession(t *testing.T) {
	s := NewStore()
	s.SetState(1, AwaitingName)
	s.Update(1, func(sess *Session) { sess.Product.Name = "x" })

	s.SetState(1, Idle)

	if s.Len() != 0 {
		t.Fatalf("expected session to be dropped")
	}
}

func TestChatsAreIsolated(t *testing.T) {
	s := NewStore()
	s.SetState(1, AwaitingPrice)
	s.SetState(2, AwaitingTopUpAmount)
	s.Clear(1)

	if s.State(2) != AwaitingTopUpAmount {
		t.Fatalf("clearing chat 1 touched chat 2")
	}
}

func TestIsAdminFlow(t *testing.T) {
	tests := []struct {
		step Step
		want bool
	}{
		{AwaitingName, true},
		{AwaitingPhotoUpload, true},
		{AwaitingEditDetails, true},
		{AwaitingTopUpAmount, false},
		{Idle, false},
	}
	for _, tt := range tests {
		if got := tt.step.IsAdminFlow(); got != tt.want {
			t.Fatalf("%q: expected %v, got %v", tt.step, tt.want, got)
		}
	}
}

func TestLockSerializesSameChat(t *testing.T) {
	s := NewStore()

	unlock := s.Lock(1)
	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		release := s.Lock(1)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	// another chat is not blocked
	other := s.Lock(2)
	other()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}

func TestConcurrentUpdates(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(1, func(sess *Session) { sess.Product.Quantity++ })
		}()
	}
	wg.Wait()

	if got := s.Get(1).Product.Quantity; got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}
