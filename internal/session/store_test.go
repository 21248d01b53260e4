package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/diogo/cellchat/internal/api"
	"github.com/diogo/cellchat/internal/models"
)

func TestStore_Send(t *testing.T) {
	store := NewStore()
	mock := &api.MockClient{Completion: &models.Completion{
		Cells:    []byte(`[{"cell_0":{"text":[{"caption":"A","content":"B"}]}}]`),
		Response: "Here you go.",
	}}

	if err := store.Send(context.Background(), mock, "explain"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	snap := store.Snapshot()
	if snap.Loading {
		t.Error("store should be idle after Send")
	}
	if len(snap.Layout.Boxes) != 1 {
		t.Errorf("len(Boxes) = %d, want 1", len(snap.Layout.Boxes))
	}
	if snap.LastAssistant() != "Here you go." {
		t.Errorf("LastAssistant() = %q", snap.LastAssistant())
	}

	history := mock.LastHistory()
	if len(history) != 1 || history[0].Content != models.WelcomeText {
		t.Errorf("history sent = %+v, want the welcome message", history)
	}
}

func TestStore_SendFailureResolves(t *testing.T) {
	store := NewStore()
	mock := &api.MockClient{Err: errors.New("boom")}

	if err := store.Send(context.Background(), mock, "explain"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := store.Snapshot().LastAssistant(); got != models.ErrorText {
		t.Errorf("LastAssistant() = %q, want error text", got)
	}
}

func TestStore_RejectsOverlappingSend(t *testing.T) {
	store := NewStore()
	release := make(chan struct{})
	started := make(chan struct{})

	mock := &api.MockClient{
		CompleteFunc: func(ctx context.Context, history []models.Message, message string) (*models.Completion, error) {
			close(started)
			<-release
			return &models.Completion{}, nil
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.Send(context.Background(), mock, "first")
	}()

	<-started
	if err := store.Send(context.Background(), mock, "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("overlapping Send() error = %v, want ErrBusy", err)
	}
	close(release)
	wg.Wait()

	if mock.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", mock.Calls())
	}
}

func TestStore_Subscribe(t *testing.T) {
	store := NewStore()
	updates, cancel := store.Subscribe()
	defer cancel()

	mock := &api.MockClient{Completion: &models.Completion{}}
	if err := store.Send(context.Background(), mock, "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	var got []bool
	for len(got) < 2 {
		select {
		case snap := <-updates:
			got = append(got, snap.Loading)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for updates, got %v", got)
		}
	}
	if !got[0] || got[1] {
		t.Errorf("loading sequence = %v, want [true false]", got)
	}
}

func TestStore_UnsubscribeClosesChannel(t *testing.T) {
	store := NewStore()
	updates, cancel := store.Subscribe()
	cancel()
	cancel()

	if _, ok := <-updates; ok {
		t.Error("channel should be closed after cancel")
	}
	if _, err := store.Submit("still works"); err != nil {
		t.Errorf("Submit() after unsubscribe error = %v", err)
	}
}

func TestStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewStore()
	_, cancel := store.Subscribe()
	defer cancel()

	mock := &api.MockClient{Completion: &models.Completion{}}
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = store.Send(context.Background(), mock, "spam")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("store blocked on a subscriber that never reads")
	}
}

func TestStore_LaggingSubscriberEndsOnLatest(t *testing.T) {
	store := NewStore()
	updates, cancel := store.Subscribe()
	defer cancel()

	mock := &api.MockClient{Completion: &models.Completion{Cells: []byte(`[{"cell_0":"red"}]`)}}
	for i := 0; i < 6; i++ {
		if err := store.Send(context.Background(), mock, "more"); err != nil {
			t.Fatalf("Send() #%d error = %v", i, err)
		}
	}

	var last State
	received := 0
	for drained := false; !drained; {
		select {
		case snap := <-updates:
			last = snap
			received++
		default:
			drained = true
		}
	}

	if received != subscriberBuffer {
		t.Errorf("received %d snapshots, want a full buffer of %d", received, subscriberBuffer)
	}
	if diff := cmp.Diff(store.Snapshot(), last); diff != "" {
		t.Errorf("last received snapshot is stale (-want +got):\n%s", diff)
	}
}
