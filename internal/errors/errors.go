// internal/errors/errors.go
package appErrors

import (
	"fmt"
	"strings"
)

// ErrEmptySelection rejects a launch with no clients selected.
type ErrEmptySelection struct{}

func (e *ErrEmptySelection) Error() string {
	return "campaign launch requires a non-empty client selection"
}

func NewEmptySelection() error {
	return &ErrEmptySelection{}
}

// ErrDuplicateLaunch rejects a launch whose request id is still in flight.
type ErrDuplicateLaunch struct {
	RequestID string
}

func (e *ErrDuplicateLaunch) Error() string {
	return fmt.Sprintf("launch %s is already in flight", e.RequestID)
}

func NewDuplicateLaunch(requestID string) error {
	return &ErrDuplicateLaunch{RequestID: requestID}
}

// ErrHistoryWrite is the fatal step-1 failure: no history rows are usable and
// no activations were attempted.
type ErrHistoryWrite struct {
	CampaignTag string
	Cause       error
}

func (e *ErrHistoryWrite) Error() string {
	return fmt.Sprintf("campaign %s: history write failed: %v", e.CampaignTag, e.Cause)
}

func (e *ErrHistoryWrite) Unwrap() error { return e.Cause }

func NewHistoryWrite(campaignTag string, cause error) error {
	return &ErrHistoryWrite{CampaignTag: campaignTag, Cause: cause}
}

// ErrTaskCreation is the non-fatal step-2 failure: history is committed but
// the listed clients have no activation yet.
type ErrTaskCreation struct {
	CampaignTag string
	ClientIDs   []string
	Cause       error
}

func (e *ErrTaskCreation) Error() string {
	return fmt.Sprintf("campaign %s: task creation failed for clients [%s]: %v",
		e.CampaignTag, strings.Join(e.ClientIDs, ", "), e.Cause)
}

func (e *ErrTaskCreation) Unwrap() error { return e.Cause }

func NewTaskCreation(campaignTag string, clientIDs []string, cause error) error {
	return &ErrTaskCreation{CampaignTag: campaignTag, ClientIDs: clientIDs, Cause: cause}
}

// ErrAudienceSearch wraps a failed or timed-out deep memory search. Callers
// treat the result as zero candidates and may re-issue the query.
type ErrAudienceSearch struct {
	Query string
	Cause error
}

func (e *ErrAudienceSearch) Error() string {
	return fmt.Sprintf("audience search %q failed: %v", e.Query, e.Cause)
}

func (e *ErrAudienceSearch) Unwrap() error { return e.Cause }

func NewAudienceSearch(query string, cause error) error {
	return &ErrAudienceSearch{Query: query, Cause: cause}
}

// ErrStaleQuery marks a resolution superseded by a newer one; its results
// must be discarded, not rendered.
type ErrStaleQuery struct {
	Query string
}

func (e *ErrStaleQuery) Error() string {
	return fmt.Sprintf("audience query %q superseded by a newer query", e.Query)
}

func NewStaleQuery(query string) error {
	return &ErrStaleQuery{Query: query}
}

// ErrClientNotFound is a sentinel error
type ErrClientNotFound struct {
	ClientID string
}

func (e *ErrClientNotFound) Error() string {
	return fmt.Sprintf("client with ID %s not found", e.ClientID)
}

func NewClientNotFound(id string) error {
	return &ErrClientNotFound{ClientID: id}
}
