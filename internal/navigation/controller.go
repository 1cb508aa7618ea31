// Package navigation decides, for each activated link, between opening a
// read-only preview of the target card and force-requeuing it into the
// current review session.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
)

// State is the controller's position in the dispatch lifecycle. Every
// dispatch ends back in StateIdle regardless of outcome.
type State string

const (
	StateIdle             State = "idle"
	StateDispatching      State = "dispatching"
	StatePreviewOpened    State = "preview-opened"
	StateRequeueAttempted State = "requeue-attempted"
)

// Options tunes the deferred preview auto-select.
type Options struct {
	// SettleDelay is how long to wait before the first auto-select attempt,
	// giving the preview surface's own search time to populate.
	SettleDelay time.Duration
	// AutoSelectAttempts bounds the auto-select retries.
	AutoSelectAttempts uint
}

// Controller is the click-time navigation state machine. It is meant for
// single-goroutine cooperative use from the host's UI loop; only the
// deferred auto-select callback runs off that loop, and it touches nothing
// but the preview surface.
type Controller struct {
	store     hoststore.Store
	scheduler hoststore.Scheduler
	reviewer  hoststore.Reviewer
	previews  hoststore.PreviewOpener
	prompter  Prompter
	options   Options

	state State
	now   func() time.Time
	after func(d time.Duration, f func()) stopper
}

type stopper interface {
	Stop() bool
}

func NewController(
	store hoststore.Store,
	scheduler hoststore.Scheduler,
	reviewer hoststore.Reviewer,
	previews hoststore.PreviewOpener,
	prompter Prompter,
	options Options,
) *Controller {
	if options.SettleDelay <= 0 {
		options.SettleDelay = time.Second
	}
	if options.AutoSelectAttempts == 0 {
		options.AutoSelectAttempts = 3
	}
	return &Controller{
		store:     store,
		scheduler: scheduler,
		reviewer:  reviewer,
		previews:  previews,
		prompter:  prompter,
		options:   options,
		state:     StateIdle,
		now:       time.Now,
		after: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Dispatch handles one activated link command. Commands from other host
// surfaces are ignored. Malformed link commands and vanished targets are
// reported to the user and returned as errors; they never mutate card state.
func (c *Controller) Dispatch(ctx context.Context, raw string) error {
	// The host bridge multiplexes commands from every surface; ones that
	// are not ours pass through untouched.
	if !hoststore.IsLinkCommand(raw) {
		return nil
	}

	cmd, err := hoststore.ParseCommand(raw)
	if err != nil {
		c.prompter.Info(msgInvalidCommand)
		return fmt.Errorf("hoststore.ParseCommand() > %w", err)
	}

	c.state = StateDispatching
	defer func() {
		c.state = StateIdle
	}()

	target, err := c.store.Card(ctx, cmd.CardID)
	if err != nil {
		if errors.Is(err, hoststore.ErrCardNotFound) {
			c.prompter.Info(msgLinkedCardGone)
		} else {
			c.prompter.Info(msgLoadFailed)
		}
		return fmt.Errorf("store.Card() > %w", err)
	}

	if cmd.Reviewed {
		return c.openPreview(ctx, target.ID)
	}

	inDeck, err := c.inCurrentDeck(ctx, target)
	if err != nil {
		c.prompter.Info(msgLoadFailed)
		return err
	}
	if !inDeck {
		return c.openPreview(ctx, target.ID)
	}
	return c.forceRequeue(ctx, target)
}

// inCurrentDeck reports whether the target card's deck is the deck of the
// card currently under review, or a "::"-descendant of it. Resolved fresh
// at click time: the user may have moved decks since the answer rendered.
func (c *Controller) inCurrentDeck(ctx context.Context, target *hoststore.Card) (bool, error) {
	current, err := c.reviewer.CurrentCard(ctx)
	if err != nil {
		if errors.Is(err, hoststore.ErrNoCurrentCard) {
			return false, nil
		}
		return false, fmt.Errorf("reviewer.CurrentCard() > %w", err)
	}
	if current.DeckID == target.DeckID {
		return true, nil
	}

	currentName, err := c.store.DeckName(ctx, current.DeckID)
	if err != nil {
		return false, fmt.Errorf("store.DeckName() > %w", err)
	}
	targetName, err := c.store.DeckName(ctx, target.DeckID)
	if err != nil {
		return false, fmt.Errorf("store.DeckName() > %w", err)
	}
	return strings.HasPrefix(targetName, currentName+"::"), nil
}

var errSurfaceClosed = errors.New("preview surface was closed")

func (c *Controller) openPreview(ctx context.Context, cardID int64) error {
	surface, err := c.previews.OpenPreview(ctx, fmt.Sprintf("cid:%d", cardID))
	if err != nil {
		c.prompter.Info(msgPreviewFailed)
		return fmt.Errorf("previews.OpenPreview() > %w", err)
	}
	c.state = StatePreviewOpened

	c.after(c.options.SettleDelay, func() {
		closed := false
		if err := retry.Do(
			func() error {
				if !surface.Alive() {
					closed = true
					return retry.Unrecoverable(errSurfaceClosed)
				}
				return surface.AutoSelect()
			},
			retry.Attempts(c.options.AutoSelectAttempts),
			retry.LastErrorOnly(true),
		); err != nil {
			if closed {
				// The user closed the preview; nothing to select.
				return
			}
			slog.Debug("preview auto-select did not settle",
				slog.Int64("cardID", cardID),
				slog.Any("error", err),
			)
			c.prompter.Info(msgSelectManually)
		}
	})
	return nil
}

// forceRequeue pulls the target card to the front of the current session.
// After the consent gate every step commits immediately; a later step's
// failure is reported but earlier steps are not rolled back.
func (c *Controller) forceRequeue(ctx context.Context, target *hoststore.Card) error {
	c.state = StateRequeueAttempted

	switch {
	case target.Queue == hoststore.QueueSuspended:
		ok, err := c.prompter.Confirm(promptUnsuspend)
		if err != nil {
			return fmt.Errorf("prompter.Confirm() > %w", err)
		}
		if !ok {
			c.prompter.Info(msgRequeueCanceled)
			return nil
		}
		if err := c.store.UnsuspendCards(ctx, []int64{target.ID}); err != nil {
			c.prompter.Info(msgSwitchFailed)
			return fmt.Errorf("store.UnsuspendCards() > %w", err)
		}
	case target.Queue.Buried():
		ok, err := c.prompter.Confirm(promptUnbury)
		if err != nil {
			return fmt.Errorf("prompter.Confirm() > %w", err)
		}
		if !ok {
			c.prompter.Info(msgRequeueCanceled)
			return nil
		}
		if err := c.store.UnburyCards(ctx, []int64{target.ID}); err != nil {
			c.prompter.Info(msgSwitchFailed)
			return fmt.Errorf("store.UnburyCards() > %w", err)
		}
	case target.Queue < hoststore.QueueNew:
		ok, err := c.prompter.Confirm(promptRequeue)
		if err != nil {
			return fmt.Errorf("prompter.Confirm() > %w", err)
		}
		if !ok {
			c.prompter.Info(msgRequeueCanceled)
			return nil
		}
	}

	target.Type = hoststore.CardTypeLearning
	target.Queue = hoststore.QueueLearning
	target.Due = c.now().Unix()
	if err := c.store.UpdateCardScheduling(ctx, target); err != nil {
		c.prompter.Info(msgSwitchFailed)
		return fmt.Errorf("store.UpdateCardScheduling() > %w", err)
	}

	committed, err := c.store.Card(ctx, target.ID)
	if err != nil {
		c.prompter.Info(msgSwitchFailed)
		return fmt.Errorf("store.Card() > %w", err)
	}
	if committed.Queue != hoststore.QueueLearning {
		c.prompter.Info(msgSwitchFailed)
		return fmt.Errorf("card %d is in queue %d after requeue", committed.ID, committed.Queue)
	}

	if err := c.scheduler.Reset(ctx); err != nil {
		c.prompter.Info(msgSwitchFailed)
		return fmt.Errorf("scheduler.Reset() > %w", err)
	}
	if err := c.reviewer.Advance(ctx); err != nil {
		c.prompter.Info(msgSwitchFailed)
		return fmt.Errorf("reviewer.Advance() > %w", err)
	}
	return nil
}
