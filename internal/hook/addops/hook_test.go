package addops

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/rules"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestHook_PreExecuteReplacesOperationsInPlace(t *testing.T) {
	logOp := domain.NewOp("Log")
	reg := rules.NewRegistry(rules.RuleSet{Before: map[string][]domain.Operation{"Get": {logOp}}}, nil)
	h := New(reg, discardLogger())

	get, add := domain.NewOp("Get"), domain.NewOp("Add")
	chain := domain.NewChain(get, add)
	same := chain

	require.NoError(t, h.PreExecute(context.Background(), chain, domain.NewPrincipal("u")))

	assert.Same(t, same, chain)
	require.Len(t, chain.Operations, 3)
	assert.Same(t, logOp, chain.Operations[0])
	assert.Same(t, get, chain.Operations[1])
	assert.Same(t, add, chain.Operations[2])
}

func TestHook_PreExecuteSelectsByOpAuth(t *testing.T) {
	reg := rules.NewRegistry(
		rules.RuleSet{Start: []domain.Operation{domain.NewOp("DefaultStart")}},
		[]rules.AuthorisedRuleSet{
			{Auth: "k1", Rules: rules.RuleSet{Start: []domain.Operation{domain.NewOp("K1Start")}}},
			{Auth: "k2", Rules: rules.RuleSet{Start: []domain.Operation{domain.NewOp("K2Start")}}},
		},
	)
	h := New(reg, discardLogger())

	tests := []struct {
		name      string
		principal *domain.Principal
		want      []string
	}{
		{"default", domain.NewPrincipal("u"), []string{"DefaultStart", "Get"}},
		{"k2 only", domain.NewPrincipal("u", "k2"), []string{"K2Start", "Get"}},
		{"k1 and k2", domain.NewPrincipal("u", "k2", "k1"), []string{"K1Start", "Get"}},
		{"unknown auth", domain.NewPrincipal("u", "x"), []string{"DefaultStart", "Get"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := domain.NewChain(domain.NewOp("Get"))
			require.NoError(t, h.PreExecute(context.Background(), chain, tt.principal))
			assert.Equal(t, tt.want, chain.TypeIDs())
		})
	}
}

func TestHook_EmptyChainGetsStartAndEnd(t *testing.T) {
	reg := rules.NewRegistry(rules.RuleSet{
		Start: []domain.Operation{domain.NewOp("S")},
		End:   []domain.Operation{domain.NewOp("E")},
	}, nil)
	h := New(reg, discardLogger())

	chain := domain.NewChain()
	require.NoError(t, h.PreExecute(context.Background(), chain, domain.NewPrincipal("u")))

	assert.Equal(t, []string{"S", "E"}, chain.TypeIDs())
}

func TestHook_NilChainAndNilRegistry(t *testing.T) {
	h := New(nil, discardLogger())

	assert.NoError(t, h.PreExecute(context.Background(), nil, domain.NewPrincipal("u")))

	get := domain.NewOp("Get")
	chain := domain.NewChain(get)
	require.NoError(t, h.PreExecute(context.Background(), chain, nil))
	require.Len(t, chain.Operations, 1)
	assert.Same(t, get, chain.Operations[0])
}

func TestHook_NestedChainLiteral(t *testing.T) {
	s := domain.NewOp("S")
	get := domain.NewOp("Get")
	sub := domain.NewChain(get)

	t.Run("default mode preserves nested chain", func(t *testing.T) {
		h := New(rules.NewRegistry(rules.RuleSet{Start: []domain.Operation{s}}, nil), discardLogger())
		chain := domain.NewChain(sub)

		require.NoError(t, h.PreExecute(context.Background(), chain, domain.NewPrincipal("u")))

		require.Len(t, chain.Operations, 4)
		assert.Same(t, s, chain.Operations[0])
		assert.Same(t, s, chain.Operations[1])
		assert.Same(t, get, chain.Operations[2])
		assert.Same(t, sub, chain.Operations[3])
	})

	t.Run("flatten-only", func(t *testing.T) {
		reg := rules.NewRegistry(rules.RuleSet{Start: []domain.Operation{s}}, nil, rules.WithNestedChainMode(rules.FlattenOnly))
		h := New(reg, discardLogger())
		chain := domain.NewChain(sub)

		require.NoError(t, h.PreExecute(context.Background(), chain, domain.NewPrincipal("u")))

		assert.Equal(t, []string{"S", "S", "Get"}, chain.TypeIDs())
	})
}

func TestHook_PostExecuteIsIdentity(t *testing.T) {
	h := New(nil, discardLogger())
	result := &struct{ n int }{n: 1}

	got, err := h.PostExecute(context.Background(), result, domain.NewChain(), domain.NewPrincipal("u"))

	require.NoError(t, err)
	assert.Same(t, result, got)

	got, err = h.PostExecute(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHook_Setters(t *testing.T) {
	h := New(nil, discardLogger())
	s, e := domain.NewOp("S"), domain.NewOp("E")
	b, a := domain.NewOp("B"), domain.NewOp("A")

	h.SetStart([]domain.Operation{s})
	h.SetEnd([]domain.Operation{e})
	h.SetBefore(map[string][]domain.Operation{"Get": {b}})
	h.SetAfter(map[string][]domain.Operation{"Get": {a}})

	assert.Equal(t, []domain.Operation{s}, h.Start())
	assert.Equal(t, []domain.Operation{e}, h.End())
	assert.Equal(t, map[string][]domain.Operation{"Get": {b}}, h.Before())
	assert.Equal(t, map[string][]domain.Operation{"Get": {a}}, h.After())

	chain := domain.NewChain(domain.NewOp("Get"))
	require.NoError(t, h.PreExecute(context.Background(), chain, domain.NewPrincipal("u")))
	assert.Equal(t, []string{"S", "B", "Get", "A", "E"}, chain.TypeIDs())
}

func TestHook_SetAuthorisedOpsReplaces(t *testing.T) {
	h := New(nil, discardLogger())
	h.SetAuthorisedOps([]rules.AuthorisedRuleSet{
		{Auth: "old", Rules: rules.RuleSet{End: []domain.Operation{domain.NewOp("Old")}}},
	})
	h.SetAuthorisedOps([]rules.AuthorisedRuleSet{
		{Auth: "new", Rules: rules.RuleSet{End: []domain.Operation{domain.NewOp("New")}}},
	})

	auths := h.AuthorisedOps()
	require.Len(t, auths, 1)
	assert.Equal(t, "new", auths[0].Auth)

	h.SetAuthorisedOps(nil)
	assert.Empty(t, h.AuthorisedOps())
}

func TestHook_SettersKeepRegistryOptions(t *testing.T) {
	h := New(rules.NewRegistry(rules.RuleSet{}, nil, rules.WithNestedChainMode(rules.FlattenOnly)), discardLogger())

	h.SetStart([]domain.Operation{domain.NewOp("S")})

	assert.Equal(t, rules.FlattenOnly, h.Registry().Mode())
}

func TestHook_SwapIsObservedWhole(t *testing.T) {
	regA := rules.NewRegistry(rules.RuleSet{
		Start: []domain.Operation{domain.NewOp("A")},
		End:   []domain.Operation{domain.NewOp("A")},
	}, nil)
	regB := rules.NewRegistry(rules.RuleSet{
		Start: []domain.Operation{domain.NewOp("B")},
		End:   []domain.Operation{domain.NewOp("B")},
	}, nil)
	h := New(regA, discardLogger())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				h.Swap(regB)
			} else {
				h.Swap(regA)
			}
		}
	}()

	for i := 0; i < 500; i++ {
		chain := domain.NewChain(domain.NewOp("Get"))
		require.NoError(t, h.PreExecute(context.Background(), chain, domain.NewPrincipal("u")))
		ids := chain.TypeIDs()
		require.Len(t, ids, 3)
		require.Equal(t, ids[0], ids[2], "start and end must come from the same registry")
	}
	close(stop)
	wg.Wait()
}

func TestHook_ConcurrentSettersDoNotLoseUpdates(t *testing.T) {
	h := New(nil, discardLogger())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			h.SetStart([]domain.Operation{domain.NewOp("S")})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			h.SetEnd([]domain.Operation{domain.NewOp("E")})
		}
	}()
	wg.Wait()

	assert.Len(t, h.Start(), 1)
	assert.Len(t, h.End(), 1)
}

func TestHook_WarnsOnFlattenAndPreserve(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	New(rules.NewRegistry(rules.RuleSet{}, nil), logger)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "nested_chain_mode=flatten-and-preserve")

	buf.Reset()
	New(rules.NewRegistry(rules.RuleSet{}, nil, rules.WithNestedChainMode(rules.FlattenOnly)), logger)
	assert.NotContains(t, buf.String(), "level=WARN")
}

func TestHook_WarnsOnlyOnModeTransitions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	preserve := rules.NewRegistry(rules.RuleSet{}, nil)
	flatten := rules.NewRegistry(rules.RuleSet{}, nil, rules.WithNestedChainMode(rules.FlattenOnly))

	h := New(preserve, logger)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("level=WARN")))

	tests := []struct {
		name  string
		apply func()
		warns int
	}{
		{"setter keeps mode", func() { h.SetStart([]domain.Operation{domain.NewOp("S")}) }, 0},
		{"swap keeps mode", func() { h.Swap(preserve.WithEnd([]domain.Operation{domain.NewOp("E")})) }, 0},
		{"swap to flatten-only", func() { h.Swap(flatten) }, 0},
		{"swap back to flatten-and-preserve", func() { h.Swap(preserve) }, 1},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.apply()
		assert.Equal(t, tt.warns, bytes.Count(buf.Bytes(), []byte("level=WARN")), tt.name)
		assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("insertion rules installed")), tt.name)
	}
}

func TestNewNamed(t *testing.T) {
	assert.Equal(t, "custom", NewNamed("custom", nil, discardLogger()).Name())
	assert.Equal(t, Name, NewNamed("", nil, discardLogger()).Name())
}
