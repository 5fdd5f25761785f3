package sentinell

import (
	"github.com/google/uuid"
)

// Turn is one model round trip: what was sent, what came back and, if a tool was called,
// the observation produced for it.
type Turn struct {
	Input    Input
	Response *Response
	Result   *ToolResult
}

// Conversation records the turns of one loop run. It is owned by that run and is not shared.
type Conversation struct {
	ID    string
	Turns []Turn
}

func newConversation() *Conversation {
	return &Conversation{ID: uuid.NewString()}
}

func (c *Conversation) add(turn Turn) {
	c.Turns = append(c.Turns, turn)
}

// OutcomeKind tells how a loop run ended.
type OutcomeKind int

const (
	// OutcomeFinalAnswer means the model answered without requesting a tool.
	OutcomeFinalAnswer OutcomeKind = iota

	// OutcomeExhausted means the turn budget ran out before a final answer.
	OutcomeExhausted
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	return []string{"final_answer", "exhausted"}[k]
}

// Outcome is the terminal value of a loop run.
type Outcome struct {
	Kind OutcomeKind

	// Text is the final answer, or the exhausted message.
	Text string

	// Turns is the number of model round trips used.
	Turns int

	Conversation *Conversation
}

// Exhausted reports whether the run hit the turn budget.
func (o *Outcome) Exhausted() bool {
	return o.Kind == OutcomeExhausted
}
