package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"solana_tokens/internal/app/port"
	"solana_tokens/internal/domain/entity"
	"solana_tokens/internal/pkg/logger"
	"solana_tokens/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCall struct {
	list          entity.TokenList
	includeBanned bool
}

// fakeClient answers retrievals from respond, recording every call.
type fakeClient struct {
	mu      sync.Mutex
	calls   []fakeCall
	respond func(call fakeCall) ([]entity.Token, error)
}

func (f *fakeClient) record(call fakeCall) ([]entity.Token, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	respond := f.respond
	f.mu.Unlock()
	return respond(call)
}

func (f *fakeClient) GetStrict(context.Context) ([]entity.Token, error) {
	return f.record(fakeCall{list: entity.StrictList})
}

func (f *fakeClient) GetAll(_ context.Context, includeBanned bool) ([]entity.Token, error) {
	return f.record(fakeCall{list: entity.AllList, includeBanned: includeBanned})
}

func (f *fakeClient) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

func staticClient(tokens []entity.Token, err error) *fakeClient {
	return &fakeClient{respond: func(fakeCall) ([]entity.Token, error) { return tokens, err }}
}

func testLogger() port.Logger {
	return logger.NewAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleTokens(prefix string, n int) []entity.Token {
	tokens := make([]entity.Token, 0, n)
	for i := 0; i < n; i++ {
		tokens = append(tokens, entity.Token{
			Address:  fmt.Sprintf("%s-%d", prefix, i),
			ChainID:  101,
			Decimals: 6,
			Name:     fmt.Sprintf("%s token %d", prefix, i),
			Symbol:   fmt.Sprintf("%s%d", prefix, i),
			LogoURI:  "https://example.com/logo.png",
		})
	}
	return tokens
}

func waitAutoLoad(t *testing.T, s *TokenStore) {
	t.Helper()
	select {
	case <-s.AutoLoadDone():
	case <-time.After(2 * time.Second):
		t.Fatal("auto-load did not finish")
	}
}

func TestNewTokenStoreInitialState(t *testing.T) {
	s := NewTokenStore(staticClient(nil, nil), testLogger())

	assert.NotNil(t, s.Tokens())
	assert.Empty(t, s.Tokens())
	assert.False(t, s.Loading())
	state := s.Snapshot()
	assert.Empty(t, state.Source)
	assert.True(t, state.UpdatedAt.IsZero())
}

func TestFetchStrictReplacesTokens(t *testing.T) {
	want := sampleTokens("strict", 3)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewTokenStore(staticClient(want, nil), testLogger(), WithClock(func() time.Time { return now }))

	got, err := s.FetchStrict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want, s.Tokens())

	state := s.Snapshot()
	assert.Equal(t, "strict", state.Source)
	assert.Equal(t, now, state.UpdatedAt)
	assert.False(t, state.Loading)
}

func TestFetchAllReplacesWholesale(t *testing.T) {
	first := sampleTokens("a", 4)
	second := sampleTokens("b", 2)
	results := [][]entity.Token{first, second}
	var n int
	client := &fakeClient{respond: func(fakeCall) ([]entity.Token, error) {
		out := results[n]
		n++
		return out, nil
	}}
	s := NewTokenStore(client, testLogger())

	_, err := s.FetchAll(context.Background(), false)
	require.NoError(t, err)
	got, err := s.FetchAll(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, second, got)
	assert.Equal(t, second, s.Tokens())
	assert.Equal(t, "all+banned", s.Snapshot().Source)
	_, found := s.Lookup("a-0")
	assert.False(t, found, "index must not keep tokens from a previous list")
	assert.Equal(t, []fakeCall{{list: entity.AllList}, {list: entity.AllList, includeBanned: true}}, client.Calls())
}

func TestLoadingFlagDiscipline(t *testing.T) {
	for _, failing := range []bool{false, true} {
		t.Run(fmt.Sprintf("failing=%v", failing), func(t *testing.T) {
			release := make(chan struct{})
			entered := make(chan struct{})
			client := &fakeClient{respond: func(fakeCall) ([]entity.Token, error) {
				close(entered)
				<-release
				if failing {
					return nil, port.ErrTransport
				}
				return sampleTokens("x", 1), nil
			}}
			s := NewTokenStore(client, testLogger())

			var mu sync.Mutex
			var seen []bool
			unsubscribe := s.Subscribe(func(state State) {
				mu.Lock()
				seen = append(seen, state.Loading)
				mu.Unlock()
			})
			defer unsubscribe()

			assert.False(t, s.Loading())

			done := make(chan struct{})
			go func() {
				defer close(done)
				_, _ = s.FetchStrict(context.Background())
			}()

			<-entered
			assert.True(t, s.Loading())
			close(release)
			<-done

			assert.False(t, s.Loading())
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, []bool{true, false}, seen)
		})
	}
}

func TestLastWriteWins(t *testing.T) {
	strictTokens := sampleTokens("strict", 2)
	allTokens := sampleTokens("all", 5)
	releaseStrict := make(chan struct{})
	releaseAll := make(chan struct{})
	var entered sync.WaitGroup
	entered.Add(2)

	client := &fakeClient{respond: func(call fakeCall) ([]entity.Token, error) {
		entered.Done()
		if call.list == entity.StrictList {
			<-releaseStrict
			return strictTokens, nil
		}
		<-releaseAll
		return allTokens, nil
	}}
	s := NewTokenStore(client, testLogger())

	strictDone := make(chan struct{})
	allDone := make(chan struct{})
	go func() {
		defer close(strictDone)
		_, _ = s.FetchStrict(context.Background())
	}()
	go func() {
		defer close(allDone)
		_, _ = s.FetchAll(context.Background(), false)
	}()
	entered.Wait()

	// Responses are applied in release order; the last one applied wins.
	close(releaseAll)
	<-allDone
	assert.Equal(t, allTokens, s.Tokens())
	assert.True(t, s.Loading(), "strict retrieval is still in flight")

	close(releaseStrict)
	<-strictDone
	assert.Equal(t, strictTokens, s.Tokens())
	assert.False(t, s.Loading())
}

func TestPropagatePolicyReturnsErrorAndKeepsTokens(t *testing.T) {
	initial := sampleTokens("keep", 2)
	failure := fmt.Errorf("%w: connection refused", port.ErrTransport)
	var fail bool
	client := &fakeClient{respond: func(fakeCall) ([]entity.Token, error) {
		if fail {
			return nil, failure
		}
		return initial, nil
	}}
	s := NewTokenStore(client, testLogger(), WithFailurePolicy(entity.PropagateFailures))

	_, err := s.FetchStrict(context.Background())
	require.NoError(t, err)

	fail = true
	got, err := s.FetchAll(context.Background(), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, port.ErrTransport))
	assert.Nil(t, got)
	assert.Equal(t, initial, s.Tokens())
	assert.False(t, s.Loading())
	assert.Equal(t, "strict", s.Snapshot().Source)
}

func TestSwallowPolicyLogsAndKeepsTokens(t *testing.T) {
	s := NewTokenStore(staticClient(nil, port.ErrDecode), testLogger(), WithFailurePolicy(entity.SwallowFailures))

	got, err := s.FetchStrict(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.FetchAll(context.Background(), false)
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.Empty(t, s.Tokens())
	assert.False(t, s.Loading())
}

func TestAutoLoadDispatchTable(t *testing.T) {
	cases := []struct {
		mode  entity.AutoLoadMode
		calls []fakeCall
	}{
		{mode: entity.AutoLoadNone, calls: nil},
		{mode: entity.AutoLoadStrict, calls: []fakeCall{{list: entity.StrictList}}},
		{mode: entity.AutoLoadAll, calls: []fakeCall{{list: entity.AllList}}},
		{mode: entity.AutoLoadAllAndBanned, calls: []fakeCall{{list: entity.AllList, includeBanned: true}}},
	}

	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			client := staticClient(sampleTokens("auto", 1), nil)
			s := NewTokenStore(client, testLogger(), WithAutoLoad(tc.mode))

			s.Start(context.Background())
			waitAutoLoad(t, s)

			assert.Equal(t, tc.calls, client.Calls())
			if tc.mode == entity.AutoLoadNone {
				assert.Empty(t, s.Tokens())
			} else {
				assert.Len(t, s.Tokens(), 1)
			}
		})
	}
}

func TestStartRunsOnce(t *testing.T) {
	client := staticClient(sampleTokens("once", 1), nil)
	s := NewTokenStore(client, testLogger(), WithAutoLoad(entity.AutoLoadStrict))

	s.Start(context.Background())
	s.Start(context.Background())
	waitAutoLoad(t, s)
	s.Start(context.Background())

	assert.Len(t, client.Calls(), 1)
}

func TestAutoLoadFailureIsHandled(t *testing.T) {
	client := staticClient(nil, port.ErrStatus)
	s := NewTokenStore(client, testLogger(), WithAutoLoad(entity.AutoLoadAll))

	s.Start(context.Background())
	waitAutoLoad(t, s)

	assert.Empty(t, s.Tokens())
	assert.False(t, s.Loading())
	assert.Len(t, client.Calls(), 1)
}

func TestLookupAndFilterByTag(t *testing.T) {
	tokens := []entity.Token{
		{Address: "sol", Symbol: "SOL", Tags: []string{"verified"}},
		{Address: "bonk", Symbol: "BONK", Tags: []string{"community"}},
		{Address: "usdc", Symbol: "USDC", Tags: []string{"verified", "stable"}},
	}
	s := NewTokenStore(staticClient(tokens, nil), testLogger())
	_, err := s.FetchStrict(context.Background())
	require.NoError(t, err)

	token, ok := s.Lookup("usdc")
	require.True(t, ok)
	assert.Equal(t, "USDC", token.Symbol)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)

	verified := s.FilterByTag("verified")
	require.Len(t, verified, 2)
	assert.Equal(t, "sol", verified[0].Address)
	assert.Equal(t, "usdc", verified[1].Address)
	assert.Empty(t, s.FilterByTag("banned"))
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	s := NewTokenStore(staticClient(sampleTokens("s", 2), nil), testLogger())

	var updates []State
	unsubscribe := s.Subscribe(func(state State) { updates = append(updates, state) })

	_, err := s.FetchStrict(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.True(t, updates[0].Loading)
	assert.Empty(t, updates[0].Tokens)
	assert.False(t, updates[1].Loading)
	assert.Len(t, updates[1].Tokens, 2)

	unsubscribe()
	unsubscribe()
	_, err = s.FetchStrict(context.Background())
	require.NoError(t, err)
	assert.Len(t, updates, 2)
}

func TestCloseDiscardsState(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls int
	client := &fakeClient{respond: func(fakeCall) ([]entity.Token, error) {
		calls++
		if calls > 1 {
			close(entered)
			<-release
		}
		return sampleTokens("c", 2), nil
	}}
	s := NewTokenStore(client, testLogger())
	_, err := s.FetchStrict(context.Background())
	require.NoError(t, err)

	var notified atomic.Bool
	s.Subscribe(func(State) { notified.Store(true) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.FetchStrict(context.Background())
	}()
	<-entered
	assert.True(t, notified.Load())

	s.Close()
	notified.Store(false)
	close(release)
	<-done

	assert.Empty(t, s.Tokens())
	assert.False(t, s.Loading())
	_, ok := s.Lookup("c-0")
	assert.False(t, ok)
	assert.False(t, notified.Load())
}

func TestFetchRecordsMetrics(t *testing.T) {
	collectors := metrics.NewCollectors(prometheus.NewRegistry())
	var fail bool
	client := &fakeClient{respond: func(fakeCall) ([]entity.Token, error) {
		if fail {
			return nil, port.ErrTransport
		}
		return sampleTokens("m", 3), nil
	}}
	s := NewTokenStore(client, testLogger(), WithMetrics(collectors))

	_, err := s.FetchStrict(context.Background())
	require.NoError(t, err)
	fail = true
	_, err = s.FetchStrict(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.FetchTotal.WithLabelValues("strict", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.FetchTotal.WithLabelValues("strict", metrics.OutcomeFailure)))
	assert.Equal(t, 3.0, testutil.ToFloat64(collectors.Tokens))
	assert.Equal(t, 0.0, testutil.ToFloat64(collectors.InFlight))
}

func TestNotificationsFollowStateOrder(t *testing.T) {
	strictTokens := sampleTokens("a", 1)
	allTokens := sampleTokens("b", 2)
	client := &fakeClient{respond: func(call fakeCall) ([]entity.Token, error) {
		if call.list == entity.StrictList {
			return strictTokens, nil
		}
		return allTokens, nil
	}}
	s := NewTokenStore(client, testLogger())

	var (
		mu       sync.Mutex
		seen     []State
		holdOnce sync.Once
	)
	held := make(chan struct{})
	hold := make(chan struct{})
	s.Subscribe(func(state State) {
		// Stall the delivery of the strict result so the all retrieval overtakes it.
		if state.Source == "strict" && !state.Loading {
			holdOnce.Do(func() {
				close(held)
				<-hold
			})
		}
		mu.Lock()
		seen = append(seen, state)
		mu.Unlock()
	})

	strictDone := make(chan struct{})
	go func() {
		defer close(strictDone)
		_, _ = s.FetchStrict(context.Background())
	}()
	<-held

	allDone := make(chan struct{})
	go func() {
		defer close(allDone)
		_, _ = s.FetchAll(context.Background(), false)
	}()
	select {
	case <-allDone:
	case <-time.After(100 * time.Millisecond):
	}
	close(hold)
	<-strictDone
	<-allDone

	final := s.Snapshot()
	assert.Equal(t, allTokens, final.Tokens)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.Equal(t, final.Version, last.Version)
	assert.Equal(t, final.Tokens, last.Tokens)
	assert.False(t, last.Loading)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i].Version, seen[i-1].Version)
	}
}

func TestFetchNormalizesNilResult(t *testing.T) {
	s := NewTokenStore(staticClient(nil, nil), testLogger())

	got, err := s.FetchAll(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, "all", s.Snapshot().Source)
}
