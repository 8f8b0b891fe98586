package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/taskchat/taskchat/src/storage"
)

// ErrNoReference indicates an ordinal phrase could not be resolved: there is
// no active displayed list, it expired, or the position is out of range. The
// orchestrator answers with a clarifying question instead of guessing.
var ErrNoReference = errors.New("no resolvable task reference")

// DisplayedEntity is one row of a task list shown to the user.
type DisplayedEntity struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Title    string `json:"title"`
}

var ordinalWords = map[string]int{
	"first":   1,
	"second":  2,
	"third":   3,
	"fourth":  4,
	"fifth":   5,
	"sixth":   6,
	"seventh": 7,
	"eighth":  8,
	"ninth":   9,
	"tenth":   10,
}

// ReferenceResolver resolves ordinal phrases ("the second one") against the
// task list most recently displayed in a conversation. The displayed context
// expires after a turn count or a wall-clock age, whichever threshold is
// crossed first; expiry is checked at resolution time.
type ReferenceResolver struct {
	store    ConversationStore
	maxTurns int
	maxAge   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewReferenceResolver builds a resolver with the given expiry thresholds.
func NewReferenceResolver(store ConversationStore, maxTurns int, maxAge time.Duration, logger *slog.Logger) *ReferenceResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceResolver{
		store:    store,
		maxTurns: maxTurns,
		maxAge:   maxAge,
		logger:   logger.With("component", "reference_resolver"),
		now:      time.Now,
	}
}

// RecordDisplay stores a fresh displayed context for the conversation,
// superseding any prior one. Call it after a successful list operation.
func (r *ReferenceResolver) RecordDisplay(ctx context.Context, conversationID string, entities []DisplayedEntity) error {
	positions, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("failed to marshal displayed entities: %w", err)
	}

	turn, err := r.store.TurnCount(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to read turn count: %w", err)
	}

	dc := &storage.DisplayedContext{
		ConversationID: conversationID,
		Positions:      string(positions),
		Turn:           turn,
		CreatedAt:      r.now().UTC(),
	}
	if err := r.store.SaveDisplayedContext(ctx, dc); err != nil {
		return fmt.Errorf("failed to save displayed context: %w", err)
	}

	r.logger.Debug("recorded displayed context", "conversation_id", conversationID, "entities", len(entities), "turn", turn)
	return nil
}

// Resolve maps an ordinal phrase to the entity id it refers to. Returns
// ErrNoReference when no active context exists or the position is out of
// range.
func (r *ReferenceResolver) Resolve(ctx context.Context, conversationID, phrase string) (string, error) {
	dc, err := r.store.DisplayedContext(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to load displayed context: %w", err)
	}
	if dc == nil {
		return "", ErrNoReference
	}

	currentTurn, err := r.store.TurnCount(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to read turn count: %w", err)
	}

	if r.expired(dc, currentTurn) {
		return "", ErrNoReference
	}

	var entities []DisplayedEntity
	if err := json.Unmarshal([]byte(dc.Positions), &entities); err != nil {
		return "", fmt.Errorf("failed to decode displayed context: %w", err)
	}
	if len(entities) == 0 {
		return "", ErrNoReference
	}

	position, ok := parseOrdinal(phrase, len(entities))
	if !ok {
		return "", ErrNoReference
	}

	for _, e := range entities {
		if e.Position == position {
			return e.ID, nil
		}
	}
	return "", ErrNoReference
}

// expired implements the dual threshold: the context dies when either the
// turn distance or the wall-clock age crosses its limit.
func (r *ReferenceResolver) expired(dc *storage.DisplayedContext, currentTurn int) bool {
	if currentTurn-dc.Turn >= r.maxTurns {
		return true
	}
	if r.now().Sub(dc.CreatedAt) >= r.maxAge {
		return true
	}
	return false
}

// parseOrdinal normalizes a phrase to a 1-based position. Accepts ordinal
// words ("first".."tenth"), bare integers, and "last". max is the highest
// valid position.
func parseOrdinal(phrase string, max int) (int, bool) {
	p := strings.ToLower(strings.TrimSpace(phrase))

	// Strip filler: "the second one" -> "second".
	for _, word := range []string{"the ", "that "} {
		p = strings.TrimPrefix(p, word)
	}
	for _, word := range []string{" one", " task", " item"} {
		p = strings.TrimSuffix(p, word)
	}
	p = strings.TrimSpace(p)

	if p == "last" {
		if max < 1 {
			return 0, false
		}
		return max, true
	}

	position := 0
	if n, ok := ordinalWords[p]; ok {
		position = n
	} else if n, err := strconv.Atoi(p); err == nil {
		position = n
	} else {
		return 0, false
	}

	if position < 1 || position > max {
		return 0, false
	}
	return position, true
}
