// Package notestore holds the authoritative note collection.
//
// Concurrency model: a single internal loop goroutine owns the collection.
// Every read and mutation is a closure sent to that loop, so operations are
// applied one at a time and no mutex guards note data. Cleanup calls run in
// their own goroutines and re-enter the loop to patch their note by id.
package notestore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/echonotes/internal/apperr"
	"github.com/starford/echonotes/internal/cleanup"
	"github.com/starford/echonotes/internal/models"
	"github.com/starford/echonotes/internal/storage"
)

// Event kinds passed to the Notifier.
const (
	EventCreated = "created"
	EventCleaned = "cleaned"
	EventUpdated = "updated"
	EventStashed = "stashed"
	EventDeleted = "deleted"
)

// ErrEmptyContent is returned when a note would be created without content.
var ErrEmptyContent = errors.New("notestore: content is empty")

// Notifier receives a copy of the affected note after each successful mutation.
type Notifier func(kind string, note models.Note)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithNotifier registers a mutation callback. It runs on the store loop and must not block.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

type state struct {
	notes []models.Note
}

func (st *state) indexOf(id string) int {
	for i := range st.notes {
		if st.notes[i].ID == id {
			return i
		}
	}
	return -1
}

// Store is the note collection plus its persist boundary.
type Store struct {
	kv      storage.KV
	cleaner cleanup.Cleaner
	logger  *slog.Logger
	notify  Notifier
	now     func() time.Time
	newID   func() string

	opCh    chan func(*state)
	stopCh  chan struct{}
	stopped chan struct{}

	// ctx is handed to cleanup calls and cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closing bool
	pending sync.WaitGroup
}

// New loads the persisted collection from kv and starts the store loop.
func New(kv storage.KV, cleaner cleanup.Cleaner, opts ...Option) (*Store, error) {
	s := &Store{
		kv:      kv,
		cleaner: cleaner,
		logger:  slog.Default(),
		now:     time.Now,
		newID:   newULID(),
		opCh:    make(chan func(*state)),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "notestore"))

	notes, err := s.load()
	if err != nil {
		return nil, err
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.run(&state{notes: notes})
	return s, nil
}

func newULID() func() string {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	}
}

func (s *Store) load() ([]models.Note, error) {
	data, err := s.kv.Get(storage.NotesKey)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return []models.Note{}, nil
		}
		return nil, fmt.Errorf("notestore: load: %w", err)
	}
	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("notestore: decode snapshot: %w", err)
	}
	if notes == nil {
		notes = []models.Note{}
	}
	s.logger.Info("notes loaded", slog.Int("count", len(notes)))
	return notes, nil
}

func (s *Store) run(st *state) {
	defer close(s.stopped)
	for {
		select {
		case <-s.stopCh:
			return
		case op := <-s.opCh:
			op(st)
		}
	}
}

// do runs op on the store loop and waits for it to finish.
func (s *Store) do(op func(*state)) error {
	done := make(chan struct{})
	select {
	case s.opCh <- func(st *state) {
		defer close(done)
		op(st)
	}:
	case <-s.stopped:
		return apperr.ErrClosed
	}
	<-done
	return nil
}

// persist writes the whole collection. Failures are logged; memory stays authoritative.
func (s *Store) persist(st *state) {
	data, err := json.Marshal(st.notes)
	if err != nil {
		s.logger.Error("encode snapshot failed", slog.String("error", err.Error()))
		return
	}
	if err := s.kv.Set(storage.NotesKey, data); err != nil {
		s.logger.Error("persist failed", slog.String("error", err.Error()))
	}
}

// commit persists and notifies after a successful mutation of n.
func (s *Store) commit(st *state, kind string, n models.Note) {
	s.persist(st)
	if s.notify != nil {
		s.notify(kind, n.Clone())
	}
}

// CreateFromTranscript inserts a placeholder note at the front of the collection
// and returns it immediately. Cleanup runs in the background; on success the same
// note is patched in place, on failure the placeholder stays as it is.
func (s *Store) CreateFromTranscript(text string) (models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Note{}, ErrEmptyContent
	}

	note := models.Note{
		ID:       s.newID(),
		Date:     s.now(),
		Title:    models.PlaceholderTitle,
		Content:  text,
		Keywords: []string{},
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return models.Note{}, apperr.ErrClosed
	}
	s.pending.Add(1)
	s.mu.Unlock()

	err := s.do(func(st *state) {
		st.notes = append([]models.Note{note}, st.notes...)
		s.commit(st, EventCreated, note)
	})
	if err != nil {
		s.pending.Done()
		return models.Note{}, err
	}

	go s.clean(note.ID, text)
	return note.Clone(), nil
}

func (s *Store) clean(id, text string) {
	defer s.pending.Done()

	res, err := s.cleaner.Clean(s.ctx, text)
	if err != nil {
		s.logger.Warn("cleanup failed, keeping placeholder",
			slog.String("id", id),
			slog.String("error", err.Error()))
		return
	}

	title := models.TitleFromKeywords(res.Keywords)
	keywords := append([]string{}, res.Keywords...)
	var found bool
	err = s.do(func(st *state) {
		i := st.indexOf(id)
		if i < 0 {
			return
		}
		found = true
		n := &st.notes[i]
		n.Title = title
		n.Content = res.CleanedContent
		n.Keywords = keywords
		s.commit(st, EventCleaned, *n)
	})
	if err != nil {
		s.logger.Warn("cleanup result dropped", slog.String("id", id), slog.String("error", err.Error()))
		return
	}
	if !found {
		s.logger.Debug("cleanup result for removed note discarded", slog.String("id", id))
	}
}

// Create inserts a manually written or imported note at the front of the
// collection. No cleanup runs. keywords may be nil.
func (s *Store) Create(title, content string, keywords []string) (models.Note, error) {
	if strings.TrimSpace(content) == "" {
		return models.Note{}, ErrEmptyContent
	}
	if title == "" {
		title = models.DefaultTitle
	}
	note := models.Note{
		ID:       s.newID(),
		Date:     s.now(),
		Title:    title,
		Content:  content,
		Keywords: append([]string{}, keywords...),
	}
	err := s.do(func(st *state) {
		st.notes = append([]models.Note{note}, st.notes...)
		s.commit(st, EventCreated, note)
	})
	if err != nil {
		return models.Note{}, err
	}
	return note.Clone(), nil
}

// Update replaces title and content of the note with id. Keywords and stash state
// are kept. A missing id is a no-op reported as found=false.
func (s *Store) Update(id, title, content string) (note models.Note, found bool, err error) {
	if strings.TrimSpace(content) == "" {
		return models.Note{}, false, ErrEmptyContent
	}
	err = s.do(func(st *state) {
		i := st.indexOf(id)
		if i < 0 {
			return
		}
		found = true
		st.notes[i].Title = title
		st.notes[i].Content = content
		note = st.notes[i].Clone()
		s.commit(st, EventUpdated, note)
	})
	return note, found, err
}

// ToggleStash flips the stashed flag of the note with id.
// A missing id is a no-op reported as found=false.
func (s *Store) ToggleStash(id string) (note models.Note, found bool, err error) {
	err = s.do(func(st *state) {
		i := st.indexOf(id)
		if i < 0 {
			return
		}
		found = true
		st.notes[i].Stashed = !st.notes[i].Stashed
		note = st.notes[i].Clone()
		s.commit(st, EventStashed, note)
	})
	return note, found, err
}

// Delete permanently removes the note with id. Without confirmed it returns
// apperr.ErrConfirmationRequired and changes nothing. A missing id is a no-op
// reported as found=false.
func (s *Store) Delete(id string, confirmed bool) (found bool, err error) {
	if !confirmed {
		return false, apperr.ErrConfirmationRequired
	}
	err = s.do(func(st *state) {
		i := st.indexOf(id)
		if i < 0 {
			return
		}
		found = true
		removed := st.notes[i]
		st.notes = append(st.notes[:i], st.notes[i+1:]...)
		s.commit(st, EventDeleted, removed)
	})
	return found, err
}

// Get returns a copy of the note with id.
func (s *Store) Get(id string) (note models.Note, found bool, err error) {
	err = s.do(func(st *state) {
		if i := st.indexOf(id); i >= 0 {
			note = st.notes[i].Clone()
			found = true
		}
	})
	return note, found, err
}

// List returns a copy of the whole collection, newest first.
func (s *Store) List() ([]models.Note, error) {
	var out []models.Note
	err := s.do(func(st *state) {
		out = cloneAll(st.notes)
	})
	return out, err
}

// Search returns the notes matching query (see Match), in collection order.
func (s *Store) Search(query string) ([]models.Note, error) {
	var out []models.Note
	err := s.do(func(st *state) {
		out = Filter(st.notes, query)
	})
	return out, err
}

// Close stops accepting new notes, cancels outstanding cleanup calls,
// waits for them and stops the loop. It is safe to call more than once.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		<-s.stopped
		return
	}
	s.closing = true
	s.mu.Unlock()

	s.cancel()
	s.pending.Wait()
	close(s.stopCh)
	<-s.stopped
}

func cloneAll(notes []models.Note) []models.Note {
	out := make([]models.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}
