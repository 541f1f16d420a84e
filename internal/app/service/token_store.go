package service

import (
	"context"
	"sync"
	"time"

	"solana_tokens/internal/app/port"
	"solana_tokens/internal/domain/entity"
	"solana_tokens/internal/pkg/metrics"

	"github.com/patrickmn/go-cache"
)

// State is a point-in-time view of the store.
type State struct {
	Tokens    []entity.Token
	Loading   bool
	Source    string
	UpdatedAt time.Time
	// Version increases with every state change.
	Version uint64
}

// Option configures a TokenStore at construction.
type Option func(s *TokenStore)

// WithAutoLoad selects the retrieval Start dispatches.
func WithAutoLoad(mode entity.AutoLoadMode) Option {
	return func(s *TokenStore) {
		s.autoLoad = mode
	}
}

// WithFailurePolicy selects how both retrieval operations report failures.
func WithFailurePolicy(policy entity.FailurePolicy) Option {
	return func(s *TokenStore) {
		s.policy = policy
	}
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(c *metrics.Collectors) Option {
	return func(s *TokenStore) {
		s.metrics = c
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *TokenStore) {
		s.now = now
	}
}

// TokenStore owns the current token list and the in-flight state, and publishes
// every change to its subscribers. Only FetchStrict and FetchAll mutate it.
type TokenStore struct {
	client   port.TokenListClient
	logger   port.Logger
	metrics  *metrics.Collectors
	autoLoad entity.AutoLoadMode
	policy   entity.FailurePolicy
	now      func() time.Time

	mu        sync.RWMutex
	tokens    []entity.Token
	inFlight  int
	source    string
	updatedAt time.Time
	byAddress *cache.Cache
	closed    bool
	version   uint64

	subMu       sync.Mutex
	subscribers map[int]func(State)
	nextSubID   int

	// notifyMu orders deliveries; lastPublished is the newest version delivered.
	notifyMu      sync.Mutex
	lastPublished uint64

	startOnce    sync.Once
	autoLoadDone chan struct{}
}

var _ port.TokenStore = (*TokenStore)(nil)

// NewTokenStore creates an empty store. Nothing is fetched until Start or an explicit call.
func NewTokenStore(client port.TokenListClient, logger port.Logger, opts ...Option) *TokenStore {
	s := &TokenStore{
		client:       client,
		logger:       logger.With("component", "TokenStore"),
		policy:       entity.PropagateFailures,
		now:          time.Now,
		tokens:       []entity.Token{},
		byAddress:    cache.New(cache.NoExpiration, 0),
		subscribers:  make(map[int]func(State)),
		autoLoadDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the auto-load trigger. Only the first call has any effect; the
// retrieval runs in its own goroutine and its failure is logged here.
func (s *TokenStore) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		mode := s.autoLoad
		if mode == entity.AutoLoadNone {
			close(s.autoLoadDone)
			return
		}

		s.logger.Info("Auto-loading token list", "mode", string(mode))
		go func() {
			defer close(s.autoLoadDone)

			var err error
			switch mode {
			case entity.AutoLoadStrict:
				_, err = s.FetchStrict(ctx)
			case entity.AutoLoadAll:
				_, err = s.FetchAll(ctx, false)
			case entity.AutoLoadAllAndBanned:
				_, err = s.FetchAll(ctx, true)
			default:
				s.logger.Warn("Unrecognized auto-load mode, skipping", "mode", string(mode))
				return
			}
			if err != nil {
				s.logger.Error("Auto-load failed", "mode", string(mode), "error", err)
			}
		}()
	})
}

// AutoLoadDone is closed once the auto-load trigger has finished.
func (s *TokenStore) AutoLoadDone() <-chan struct{} {
	return s.autoLoadDone
}

// FetchStrict retrieves the strict list and replaces the store's tokens with it.
func (s *TokenStore) FetchStrict(ctx context.Context) ([]entity.Token, error) {
	return s.fetch(ctx, string(entity.StrictList), func(ctx context.Context) ([]entity.Token, error) {
		return s.client.GetStrict(ctx)
	})
}

// FetchAll retrieves the all list, optionally with banned tokens, and replaces the store's tokens with it.
func (s *TokenStore) FetchAll(ctx context.Context, includeBanned bool) ([]entity.Token, error) {
	source := string(entity.AllList)
	if includeBanned {
		source = string(entity.AutoLoadAllAndBanned)
	}
	return s.fetch(ctx, source, func(ctx context.Context) ([]entity.Token, error) {
		return s.client.GetAll(ctx, includeBanned)
	})
}

func (s *TokenStore) fetch(ctx context.Context, source string, get func(context.Context) ([]entity.Token, error)) ([]entity.Token, error) {
	started := time.Now()
	s.beginFetch()

	tokens, err := get(ctx)
	s.metrics.ObserveFetch(source, started, err)

	if err != nil {
		s.endFetch()
		if s.policy == entity.SwallowFailures {
			s.logger.Warn("Token list retrieval failed, keeping previous tokens", "list", source, "error", err)
			return nil, nil
		}
		return nil, err
	}

	if tokens == nil {
		tokens = []entity.Token{}
	}
	s.replace(tokens, source)
	s.logger.Debug("Token list replaced", "list", source, "count", len(tokens))
	return tokens, nil
}

func (s *TokenStore) beginFetch() {
	s.mu.Lock()
	s.inFlight++
	s.version++
	s.metrics.SetInFlight(s.inFlight)
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(state)
}

func (s *TokenStore) endFetch() {
	s.mu.Lock()
	s.inFlight--
	s.version++
	s.metrics.SetInFlight(s.inFlight)
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(state)
}

// replace swaps in a new token list and clears one in-flight mark in a single step,
// so subscribers never observe the new tokens with a stale loading flag.
func (s *TokenStore) replace(tokens []entity.Token, source string) {
	s.mu.Lock()
	s.inFlight--
	s.version++
	s.metrics.SetInFlight(s.inFlight)
	if !s.closed {
		s.tokens = tokens
		s.source = source
		s.updatedAt = s.now()
		s.byAddress.Flush()
		for _, token := range tokens {
			s.byAddress.Set(token.Address, token, cache.NoExpiration)
		}
		s.metrics.SetTokens(len(tokens))
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(state)
}

func (s *TokenStore) snapshotLocked() State {
	return State{
		Tokens:    s.tokens,
		Loading:   s.inFlight > 0,
		Source:    s.source,
		UpdatedAt: s.updatedAt,
		Version:   s.version,
	}
}

// Snapshot returns the current state.
func (s *TokenStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Tokens returns the current token list. The slice is shared and must not be modified.
func (s *TokenStore) Tokens() []entity.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// Loading reports whether a retrieval is in flight.
func (s *TokenStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// Lookup finds a token in the current list by address.
func (s *TokenStore) Lookup(address string) (entity.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byAddress.Get(address)
	if !ok {
		return entity.Token{}, false
	}
	return v.(entity.Token), true
}

// FilterByTag returns the tokens of the current list carrying tag, in list order.
func (s *TokenStore) FilterByTag(tag string) []entity.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Token, 0)
	for _, token := range s.tokens {
		if token.HasTag(tag) {
			out = append(out, token)
		}
	}
	return out
}

// Subscribe registers fn to receive every state change. The returned func removes it.
// fn runs on the goroutine that changed the state, one delivery at a time and in
// Version order. It must not block or start a retrieval on the same store.
func (s *TokenStore) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
}

// publish delivers state unless a newer version already went out. A goroutine
// can lose the race between taking its snapshot and getting here.
func (s *TokenStore) publish(state State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if state.Version <= s.lastPublished {
		return
	}
	s.lastPublished = state.Version

	s.subMu.Lock()
	listeners := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// Close discards the state and drops all subscribers. Retrievals still in flight
// complete but no longer change the token list.
func (s *TokenStore) Close() {
	s.mu.Lock()
	s.closed = true
	s.version++
	s.tokens = []entity.Token{}
	s.source = ""
	s.updatedAt = time.Time{}
	s.byAddress.Flush()
	s.metrics.SetTokens(0)
	s.mu.Unlock()

	s.subMu.Lock()
	s.subscribers = make(map[int]func(State))
	s.subMu.Unlock()
}
