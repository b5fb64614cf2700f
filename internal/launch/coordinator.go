// internal/launch/coordinator.go
package launch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/maisonlabs/pulse-backend/internal/errors"
	"github.com/maisonlabs/pulse-backend/internal/model"
	"github.com/maisonlabs/pulse-backend/internal/repository"
)

// State is the coordinator's progress through a launch. HistoryWriteFailed
// and TaskCreationFailed are terminal; only TasksCreated is full success.
type State string

const (
	StateDraft              State = "Draft"
	StateConfirmed          State = "Confirmed"
	StateHistoryWritten     State = "HistoryWritten"
	StateHistoryWriteFailed State = "HistoryWriteFailed"
	StateTasksCreated       State = "TasksCreated"
	StateTaskCreationFailed State = "TaskCreationFailed"
)

const launchTopic = "campaign_launches"

// Request is a confirmed launch: the caller has already shown the operator a
// confirmation prompt, the coordinator never auto-sends.
type Request struct {
	RequestID    string   `json:"request_id"`
	CampaignName string   `json:"campaign_name"`
	CampaignTag  string   `json:"campaign_tag"`
	Query        string   `json:"query"`
	ClientIDs    []string `json:"client_ids"`
}

type Result struct {
	State           State     `json:"state"`
	HistoryEntries  int       `json:"history_entries"`
	ActivationsMade int       `json:"activations_made"`
	Deadline        time.Time `json:"deadline"`
	Channel         string    `json:"channel"`
}

// Event is published after every settled launch so downstream consumers
// (seller apps, the retry worker) can react.
type Event struct {
	RequestID    string   `json:"request_id"`
	CampaignName string   `json:"campaign_name"`
	CampaignTag  string   `json:"campaign_tag"`
	Query        string   `json:"query"`
	State        State    `json:"state"`
	ClientIDs    []string `json:"client_ids"`
	PendingTasks []string `json:"pending_tasks,omitempty"` // clients still missing an activation
}

// Publisher is the queue the coordinator emits events on.
type Publisher interface {
	Publish(topic string, payload any) error
}

// DeadlinePolicy decides the activation deadline (in days) and channel for a
// campaign type.
type DeadlinePolicy func(campaignTag string) (days int, channel string)

// DefaultDeadlinePolicy: recall campaigns get a 2-day phone follow-up,
// everything else a 7-day email.
func DefaultDeadlinePolicy(campaignTag string) (int, string) {
	if campaignTag == "relance_client" {
		return 2, "Appel"
	}
	return 7, "Email"
}

// Coordinator commits a confirmed campaign send as two sequential,
// independently-failable writes: the history log first, then the seller
// tasks. There is deliberately no cross-write transaction, so a history
// failure stays distinguishable from a task failure.
type Coordinator struct {
	HistoryRepo    repository.HistoryRepositoryInterface
	ActivationRepo repository.ActivationRepositoryInterface
	ClientRepo     repository.ClientRepositoryInterface
	Events         Publisher
	Policy         DeadlinePolicy
	Now            func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewCoordinator(
	historyRepo repository.HistoryRepositoryInterface,
	activationRepo repository.ActivationRepositoryInterface,
	clientRepo repository.ClientRepositoryInterface,
	events Publisher,
) *Coordinator {
	return &Coordinator{
		HistoryRepo:    historyRepo,
		ActivationRepo: activationRepo,
		ClientRepo:     clientRepo,
		Events:         events,
		Policy:         DefaultDeadlinePolicy,
		Now:            time.Now,
		inFlight:       map[string]bool{},
	}
}

// Launch runs the two-phase commit for req.
//
// On success the result state is TasksCreated and exactly one history entry
// and one activation exist per selected client. A step-1 failure returns
// ErrHistoryWrite and writes nothing. A step-2 failure returns
// ErrTaskCreation naming the affected clients; the history rows stay
// committed and the operator re-runs task creation alone.
func (c *Coordinator) Launch(ctx context.Context, req Request) (*Result, error) {
	if len(req.ClientIDs) == 0 {
		return nil, appErrors.NewEmptySelection()
	}

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if !c.begin(req.RequestID) {
		return nil, appErrors.NewDuplicateLaunch(req.RequestID)
	}
	defer c.settle(req.RequestID)

	now := c.Now()
	days, channel := c.Policy(req.CampaignTag)
	deadline := now.AddDate(0, 0, days)

	result := &Result{State: StateConfirmed, Deadline: deadline, Channel: channel}

	// Step 1: history log
	entries := make([]model.HistoryEntry, 0, len(req.ClientIDs))
	for _, clientID := range req.ClientIDs {
		entries = append(entries, model.HistoryEntry{
			ClientID:     clientID,
			CampaignName: req.CampaignName,
			CampaignTag:  req.CampaignTag,
			Channel:      channel,
			Status:       "Sent",
			Metadata: map[string]string{
				"query":       req.Query,
				"strategy_id": req.CampaignTag,
				"request_id":  req.RequestID,
			},
		})
	}
	if err := c.HistoryRepo.CreateBatch(entries); err != nil {
		result.State = StateHistoryWriteFailed
		c.publish(req, StateHistoryWriteFailed, nil)
		return result, appErrors.NewHistoryWrite(req.CampaignTag, err)
	}
	result.State = StateHistoryWritten
	result.HistoryEntries = len(entries)

	// The anti-spam clock starts at send time. Bookkeeping only, a failed
	// touch does not fail the launch.
	for _, clientID := range req.ClientIDs {
		if err := c.ClientRepo.TouchLastContacted(clientID); err != nil {
			log.Println("⚠️ failed to stamp last_contacted_at for", clientID, ":", err)
		}
	}

	// Step 2: seller tasks
	activations := make([]model.Activation, 0, len(req.ClientIDs))
	for _, clientID := range req.ClientIDs {
		activations = append(activations, model.Activation{
			ClientID:   clientID,
			ActionType: req.CampaignName,
			Channel:    channel,
			Note: RenderNote(defaultNoteTemplate, map[string]string{
				"campaign": req.CampaignName,
				"query":    req.Query,
				"channel":  channel,
			}),
			Deadline: deadline,
			Status:   "Pending",
		})
	}
	if err := c.ActivationRepo.CreateBatch(activations); err != nil {
		result.State = StateTaskCreationFailed
		c.publish(req, StateTaskCreationFailed, req.ClientIDs)
		return result, appErrors.NewTaskCreation(req.CampaignTag, req.ClientIDs, err)
	}
	result.State = StateTasksCreated
	result.ActivationsMade = len(activations)

	c.publish(req, StateTasksCreated, nil)
	return result, nil
}

// RetryTasks re-runs step 2 alone for clients whose launch ended in
// TaskCreationFailed. The history log is not touched.
func (c *Coordinator) RetryTasks(ctx context.Context, req Request) (int, error) {
	if len(req.ClientIDs) == 0 {
		return 0, appErrors.NewEmptySelection()
	}

	days, channel := c.Policy(req.CampaignTag)
	deadline := c.Now().AddDate(0, 0, days)

	activations := make([]model.Activation, 0, len(req.ClientIDs))
	for _, clientID := range req.ClientIDs {
		activations = append(activations, model.Activation{
			ClientID:   clientID,
			ActionType: req.CampaignName,
			Channel:    channel,
			Note: RenderNote(defaultNoteTemplate, map[string]string{
				"campaign": req.CampaignName,
				"query":    req.Query,
				"channel":  channel,
			}),
			Deadline: deadline,
			Status:   "Pending",
		})
	}
	if err := c.ActivationRepo.CreateBatch(activations); err != nil {
		return 0, appErrors.NewTaskCreation(req.CampaignTag, req.ClientIDs, err)
	}
	return len(activations), nil
}

func (c *Coordinator) begin(requestID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[requestID] {
		return false
	}
	c.inFlight[requestID] = true
	return true
}

func (c *Coordinator) settle(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, requestID)
}

func (c *Coordinator) publish(req Request, state State, pending []string) {
	if c.Events == nil {
		return
	}
	event := Event{
		RequestID:    req.RequestID,
		CampaignName: req.CampaignName,
		CampaignTag:  req.CampaignTag,
		Query:        req.Query,
		State:        state,
		ClientIDs:    req.ClientIDs,
		PendingTasks: pending,
	}
	if err := c.Events.Publish(launchTopic, event); err != nil {
		log.Println("⚠️ failed to publish launch event:", err)
	}
}
