package repository

import (
	"context"
)

// FlowStep enumerates the admin interactive flows that wait for text input.
type FlowStep string

const (
	StepAwaitingNewCode       FlowStep = "awaiting_new_code"
	StepAwaitingCodeToDelete  FlowStep = "awaiting_code_to_delete"
	StepAwaitingBroadcastText FlowStep = "awaiting_broadcast_text"
	StepAwaitingAudience      FlowStep = "awaiting_audience"
	StepAwaitingQuestion      FlowStep = "awaiting_question"
	StepAwaitingAnswer        FlowStep = "awaiting_answer"
)

// FlowState holds one user's progress in a multi-step conversation.
// Starting a new flow overwrites an unfinished one; the store's TTL
// auto-cancels abandoned flows.
type FlowState struct {
	Step FlowStep          `json:"step"`
	Data map[string]string `json:"data"` // collected input, e.g. broadcast text or ticket id
}

// StateRepository is the port for managing any user's conversational state.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *FlowState) error
	GetState(ctx context.Context, tgID int64) (*FlowState, error)
	ClearState(ctx context.Context, tgID int64) error
}
