package launch

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/maisonlabs/pulse-backend/internal/errors"
	"github.com/maisonlabs/pulse-backend/internal/model"
)

// Mock repositories

type MockHistoryRepo struct {
	entries []model.HistoryEntry
	fail    bool
}

func (m *MockHistoryRepo) CreateBatch(entries []model.HistoryEntry) error {
	if m.fail {
		return errors.New("insert failed")
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *MockHistoryRepo) ListByClient(clientID string) ([]model.HistoryEntry, error) {
	return nil, nil
}

func (m *MockHistoryRepo) CountForTag(campaignTag string) (int, error) {
	return len(m.entries), nil
}

type MockActivationRepo struct {
	activations []model.Activation
	fail        bool
}

func (m *MockActivationRepo) CreateBatch(activations []model.Activation) error {
	if m.fail {
		return errors.New("insert failed")
	}
	m.activations = append(m.activations, activations...)
	return nil
}

func (m *MockActivationRepo) ListByStatus(status string) ([]model.Activation, error) {
	return m.activations, nil
}

func (m *MockActivationRepo) ListOverdue(now time.Time) ([]model.Activation, error) {
	return nil, nil
}

func (m *MockActivationRepo) MarkDone(id int) error { return nil }

type MockClientRepo struct {
	touched []string
}

func (m *MockClientRepo) GetByID(id string) (*model.Client, error) { return nil, nil }

func (m *MockClientRepo) List(offset, limit int, location, search string) ([]*model.Client, int, error) {
	return nil, 0, nil
}

func (m *MockClientRepo) TouchLastContacted(id string) error {
	m.touched = append(m.touched, id)
	return nil
}

type MockPublisher struct {
	events []Event
}

func (m *MockPublisher) Publish(topic string, payload any) error {
	m.events = append(m.events, payload.(Event))
	return nil
}

func launchTime() time.Time {
	return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
}

func newTestCoordinator(history *MockHistoryRepo, tasks *MockActivationRepo) (*Coordinator, *MockPublisher) {
	pub := &MockPublisher{}
	c := NewCoordinator(history, tasks, &MockClientRepo{}, pub)
	c.Now = launchTime
	return c, pub
}

func TestLaunchFullSuccess(t *testing.T) {
	history := &MockHistoryRepo{}
	tasks := &MockActivationRepo{}
	c, pub := newTestCoordinator(history, tasks)

	result, err := c.Launch(context.Background(), Request{
		CampaignName: "Cercle Éco-Responsable",
		CampaignTag:  "eco_responsible",
		Query:        "Vegan",
		ClientIDs:    []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.State != StateTasksCreated {
		t.Errorf("state = %s, want TasksCreated", result.State)
	}
	if len(history.entries) != 2 || len(tasks.activations) != 2 {
		t.Fatalf("got %d history / %d activations, want 2 / 2", len(history.entries), len(tasks.activations))
	}

	wantDeadline := launchTime().AddDate(0, 0, 7)
	for _, a := range tasks.activations {
		if !a.Deadline.Equal(wantDeadline) {
			t.Errorf("deadline = %v, want %v", a.Deadline, wantDeadline)
		}
		if a.Channel != "Email" || a.Status != "Pending" {
			t.Errorf("unexpected activation %+v", a)
		}
	}
	for _, e := range history.entries {
		if e.Status != "Sent" || e.Metadata["query"] != "Vegan" {
			t.Errorf("unexpected history entry %+v", e)
		}
	}

	if len(pub.events) != 1 || pub.events[0].State != StateTasksCreated {
		t.Errorf("expected one TasksCreated event, got %+v", pub.events)
	}
}

func TestLaunchRecallCampaignDeadline(t *testing.T) {
	history := &MockHistoryRepo{}
	tasks := &MockActivationRepo{}
	c, _ := newTestCoordinator(history, tasks)

	_, err := c.Launch(context.Background(), Request{
		CampaignName: "À Rappeler (Urgent)",
		CampaignTag:  "relance_client",
		ClientIDs:    []string{"c1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	wantDeadline := launchTime().AddDate(0, 0, 2)
	a := tasks.activations[0]
	if !a.Deadline.Equal(wantDeadline) {
		t.Errorf("recall deadline = %v, want %v", a.Deadline, wantDeadline)
	}
	if a.Channel != "Appel" {
		t.Errorf("recall channel = %s, want Appel", a.Channel)
	}
}

func TestLaunchEmptySelectionRejectedBeforeWrites(t *testing.T) {
	history := &MockHistoryRepo{}
	tasks := &MockActivationRepo{}
	c, pub := newTestCoordinator(history, tasks)

	_, err := c.Launch(context.Background(), Request{CampaignTag: "birthday"})

	var empty *appErrors.ErrEmptySelection
	if !errors.As(err, &empty) {
		t.Fatalf("got %v, want ErrEmptySelection", err)
	}
	if len(history.entries) != 0 || len(tasks.activations) != 0 || len(pub.events) != 0 {
		t.Error("empty selection must not write or publish anything")
	}
}

func TestLaunchHistoryFailureIsFatal(t *testing.T) {
	history := &MockHistoryRepo{fail: true}
	tasks := &MockActivationRepo{}
	c, pub := newTestCoordinator(history, tasks)

	result, err := c.Launch(context.Background(), Request{
		CampaignTag: "birthday",
		ClientIDs:   []string{"c1", "c2"},
	})

	var historyErr *appErrors.ErrHistoryWrite
	if !errors.As(err, &historyErr) {
		t.Fatalf("got %v, want ErrHistoryWrite", err)
	}
	if result.State != StateHistoryWriteFailed {
		t.Errorf("state = %s, want HistoryWriteFailed", result.State)
	}
	if len(tasks.activations) != 0 {
		t.Error("no activations may be created after a history failure")
	}
	if len(pub.events) != 1 || pub.events[0].State != StateHistoryWriteFailed {
		t.Errorf("expected HistoryWriteFailed event, got %+v", pub.events)
	}
}

func TestLaunchTaskFailureKeepsHistory(t *testing.T) {
	history := &MockHistoryRepo{}
	tasks := &MockActivationRepo{fail: true}
	c, pub := newTestCoordinator(history, tasks)

	result, err := c.Launch(context.Background(), Request{
		CampaignTag: "birthday",
		ClientIDs:   []string{"c1", "c2"},
	})

	var taskErr *appErrors.ErrTaskCreation
	if !errors.As(err, &taskErr) {
		t.Fatalf("got %v, want ErrTaskCreation", err)
	}
	var historyErr *appErrors.ErrHistoryWrite
	if errors.As(err, &historyErr) {
		t.Fatal("task failure must not read as a history failure")
	}

	if len(history.entries) != 2 {
		t.Errorf("history entries = %d, want 2 (committed)", len(history.entries))
	}
	if len(tasks.activations) != 0 {
		t.Errorf("activations = %d, want 0", len(tasks.activations))
	}
	if len(taskErr.ClientIDs) != 2 {
		t.Errorf("error names %d clients, want 2", len(taskErr.ClientIDs))
	}
	if result.State != StateTaskCreationFailed {
		t.Errorf("state = %s, want TaskCreationFailed", result.State)
	}
	if len(pub.events) != 1 || pub.events[0].State != StateTaskCreationFailed {
		t.Fatalf("expected TaskCreationFailed event, got %+v", pub.events)
	}
	if len(pub.events[0].PendingTasks) != 2 {
		t.Errorf("event names %d pending clients, want 2", len(pub.events[0].PendingTasks))
	}
}

func TestLaunchDuplicateRequestRejected(t *testing.T) {
	history := &MockHistoryRepo{}
	tasks := &MockActivationRepo{}
	c, _ := newTestCoordinator(history, tasks)

	req := Request{RequestID: "req-1", CampaignTag: "birthday", ClientIDs: []string{"c1"}}

	if !c.begin(req.RequestID) {
		t.Fatal("first begin should succeed")
	}

	_, err := c.Launch(context.Background(), req)
	var dup *appErrors.ErrDuplicateLaunch
	if !errors.As(err, &dup) {
		t.Fatalf("got %v, want ErrDuplicateLaunch", err)
	}

	c.settle(req.RequestID)
	if _, err := c.Launch(context.Background(), req); err != nil {
		t.Fatalf("settled request id should be launchable again, got %v", err)
	}
}

func TestLaunchStampsAntiSpamClock(t *testing.T) {
	history := &MockHistoryRepo{}
	tasks := &MockActivationRepo{}
	clients := &MockClientRepo{}
	c := NewCoordinator(history, tasks, clients, nil)
	c.Now = launchTime

	_, err := c.Launch(context.Background(), Request{
		CampaignTag: "birthday",
		ClientIDs:   []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(clients.touched) != 2 {
		t.Errorf("stamped %d clients, want 2", len(clients.touched))
	}
}

func TestRetryTasksCreatesOnlyActivations(t *testing.T) {
	history := &MockHistoryRepo{}
	tasks := &MockActivationRepo{}
	c, _ := newTestCoordinator(history, tasks)

	created, err := c.RetryTasks(context.Background(), Request{
		CampaignName: "Anniversaires & Cadeaux",
		CampaignTag:  "birthday",
		ClientIDs:    []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if created != 2 || len(tasks.activations) != 2 {
		t.Errorf("created %d activations, want 2", created)
	}
	if len(history.entries) != 0 {
		t.Error("retry must not touch the history log")
	}
}
