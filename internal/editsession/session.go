// Package editsession stages interactive repositioning of layout items. Moves
// update a local copy immediately, End schedules a debounced commit, and a
// failed commit puts the item back where the store last had it.
package editsession

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"go.uber.org/zap"
)

const DefaultDebounce = 100 * time.Millisecond

var (
	ErrClosed      = errors.New("edit session closed")
	ErrNotDragging = errors.New("no drag in progress")
	ErrDragActive  = errors.New("another item is being dragged")
)

type State int

const (
	Idle State = iota
	Dragging
	Committing
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	case RolledBack:
		return "rolled_back"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Committer persists a final item position.
type Committer interface {
	CommitPosition(ctx context.Context, itemID string, pos model.Point) error
}

type CommitFunc func(ctx context.Context, itemID string, pos model.Point) error

func (f CommitFunc) CommitPosition(ctx context.Context, itemID string, pos model.Point) error {
	return f(ctx, itemID, pos)
}

// Outcome reports how a commit ended. Position is where the item now sits
// locally: the committed position on success, the restored one on rollback.
type Outcome struct {
	ItemID     string
	Position   model.Point
	Err        error
	RolledBack bool
}

type Options struct {
	Canvas   model.Size
	Debounce time.Duration // zero means DefaultDebounce
	Snap     float64       // grid step, zero disables snapping
	Logger   logger.ZapLogger
}

type trackedItem struct {
	size      model.Size
	committed model.Point // last position the store accepted
	local     model.Point // what the user sees
	state     State
	gen       uint64
	timer     *time.Timer
}

type Session struct {
	mu        sync.Mutex
	emitMu    sync.Mutex // held while delivering outcomes
	committer Committer
	opts      Options
	ctx       context.Context
	cancel    context.CancelFunc
	items     map[string]*trackedItem
	active    string
	offset    model.Point
	subs      map[int]func(Outcome)
	nextSub   int
	closed    bool
}

func New(committer Committer, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		committer: committer,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		items:     map[string]*trackedItem{},
		subs:      map[int]func(Outcome){},
	}
}

// Track loads authoritative positions. Items that are mid-drag or awaiting a
// commit keep their local state.
func (s *Session) Track(items []model.LayoutItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		if t, ok := s.items[it.ID]; ok && t.state != Idle {
			t.size = it.Size()
			continue
		}
		s.items[it.ID] = &trackedItem{
			size:      it.Size(),
			committed: it.Position(),
			local:     it.Position(),
		}
	}
}

// Subscribe registers fn for commit outcomes and returns a function that
// removes it.
func (s *Session) Subscribe(fn func(Outcome)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Begin starts dragging itemID. pointerOffset is the pointer position
// relative to the item's top-left corner. A pending commit for the same item
// is discarded.
func (s *Session) Begin(itemID string, pointerOffset model.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.active != "" && s.active != itemID {
		return ErrDragActive
	}
	t, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, model.ErrNotFound)
	}

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.state = Dragging
	s.active = itemID
	s.offset = pointerOffset
	return nil
}

// Move places the dragged item under the pointer and returns the clamped
// local position. No store call is made.
func (s *Session) Move(pointer model.Point) (model.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.Point{}, ErrClosed
	}
	if s.active == "" {
		return model.Point{}, ErrNotDragging
	}

	t := s.items[s.active]
	p := model.Point{X: pointer.X - s.offset.X, Y: pointer.Y - s.offset.Y}
	if s.opts.Snap > 0 {
		p.X = math.Round(p.X/s.opts.Snap) * s.opts.Snap
		p.Y = math.Round(p.Y/s.opts.Snap) * s.opts.Snap
	}
	t.local = model.Clamp(p, t.size, s.opts.Canvas)
	return t.local, nil
}

// End stops the drag and schedules the debounced commit.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.active == "" {
		return ErrNotDragging
	}

	id := s.active
	t := s.items[id]
	s.active = ""
	t.state = Committing
	gen := t.gen
	t.timer = time.AfterFunc(s.opts.Debounce, func() { s.commit(id, gen) })
	return nil
}

func (s *Session) commit(itemID string, gen uint64) {
	s.mu.Lock()
	t := s.items[itemID]
	if s.closed || t == nil || t.gen != gen {
		s.mu.Unlock()
		return
	}
	t.timer = nil
	pos := t.local
	s.mu.Unlock()

	err := s.committer.CommitPosition(s.ctx, itemID, pos)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	out := Outcome{ItemID: itemID, Err: err}
	superseded := t.gen != gen
	switch {
	case err == nil:
		t.committed = pos
		out.Position = pos
		if !superseded {
			t.state = Idle
		}
	case superseded:
		// a newer drag owns the local position
		out.Position = t.local
	default:
		t.local = t.committed
		t.state = RolledBack
		out.Position = t.committed
		out.RolledBack = true
	}
	subs := s.subscribers()
	s.mu.Unlock()

	if err != nil {
		s.opts.Logger.Warn("position commit failed",
			zap.String("item_id", itemID),
			zap.Bool("rolled_back", out.RolledBack),
			zap.Error(err),
		)
	}
	s.emit(out, subs)

	if out.RolledBack {
		s.mu.Lock()
		if t.gen == gen && t.state == RolledBack {
			t.state = Idle
		}
		s.mu.Unlock()
	}
}

func (s *Session) emit(out Outcome, subs []func(Outcome)) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	for _, fn := range subs {
		fn(out)
	}
}

func (s *Session) subscribers() []func(Outcome) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Outcome), len(ids))
	for i, id := range ids {
		fns[i] = s.subs[id]
	}
	return fns
}

// Position returns the local position of itemID.
func (s *Session) Position(itemID string) (model.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.items[itemID]
	if !ok {
		return model.Point{}, false
	}
	return t.local, true
}

func (s *Session) State(itemID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.items[itemID]; ok {
		return t.state
	}
	return Idle
}

// Close abandons the active drag and pending commits. No outcome is
// delivered after Close returns. It must not be called from a subscriber.
func (s *Session) Close() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	for _, t := range s.items {
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
	}
	s.active = ""
	s.subs = map[int]func(Outcome){}
}
