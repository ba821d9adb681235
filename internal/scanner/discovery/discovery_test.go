package discovery

import (
	"strings"
	"testing"

	"trench-radar/internal/scanner/config"
	"trench-radar/pkg/dexscreener"

	"go.uber.org/zap"
)

const (
	wsolAddr = "So11111111111111111111111111111111111111112"
	usdcAddr = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func newTestEngine() *Engine {
	cfg := &config.Config{}
	cfg.Scanner.ChainID = "solana"
	return NewEngine(nil, cfg, zap.NewNop())
}

func baseSetOf(addrs ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[strings.ToLower(a)] = struct{}{}
	}
	return set
}

func TestCandidateFromBaseTakesOtherSide(t *testing.T) {
	e := newTestEngine()
	wsol := BaseToken{Address: wsolAddr, Label: "WSOL"}
	baseSet := baseSetOf(wsolAddr, usdcAddr)

	// 锚定代币在 quote 一侧，对手方是 base 一侧
	pair := &dexscreener.Pair{
		ChainID:     "solana",
		PairAddress: "PAIR1",
		BaseToken:   dexscreener.TokenInfo{Address: "MEME111"},
		QuoteToken:  dexscreener.TokenInfo{Address: wsolAddr},
	}
	c, ok := e.candidateFromBase(pair, wsol, baseSet)
	if !ok {
		t.Fatal("expected candidate")
	}
	if c.TokenAddress != "MEME111" {
		t.Errorf("token = %q", c.TokenAddress)
	}
	if c.Source != "market:WSOL" {
		t.Errorf("source = %q", c.Source)
	}

	// 锚定代币在 base 一侧
	pair.BaseToken, pair.QuoteToken = pair.QuoteToken, pair.BaseToken
	c, ok = e.candidateFromBase(pair, wsol, baseSet)
	if !ok || c.TokenAddress != "MEME111" {
		t.Errorf("token = %q ok = %v", c.TokenAddress, ok)
	}
}

func TestCandidateFromBaseSkipsBaseToBase(t *testing.T) {
	e := newTestEngine()
	wsol := BaseToken{Address: wsolAddr, Label: "WSOL"}
	baseSet := baseSetOf(wsolAddr, usdcAddr)

	pair := &dexscreener.Pair{
		ChainID:     "solana",
		PairAddress: "PAIR2",
		BaseToken:   dexscreener.TokenInfo{Address: wsolAddr},
		QuoteToken:  dexscreener.TokenInfo{Address: usdcAddr},
	}
	if _, ok := e.candidateFromBase(pair, wsol, baseSet); ok {
		t.Error("base-to-base pair must be skipped")
	}
}

func TestCandidateFromBaseRejectsOtherChain(t *testing.T) {
	e := newTestEngine()
	wsol := BaseToken{Address: wsolAddr, Label: "WSOL"}
	pair := &dexscreener.Pair{
		ChainID:     "ethereum",
		PairAddress: "PAIR3",
		BaseToken:   dexscreener.TokenInfo{Address: "X"},
		QuoteToken:  dexscreener.TokenInfo{Address: wsolAddr},
	}
	if _, ok := e.candidateFromBase(pair, wsol, baseSetOf()); ok {
		t.Error("pair on another chain must be skipped")
	}
}

func TestDedupCandidatesKeepsFirst(t *testing.T) {
	candidates := []Candidate{
		{PairAddress: "PAIRX", Source: "market:WSOL"},
		{PairAddress: "pairx", Source: "fallback_search"},
		{PairAddress: "PAIRY", Source: "boost"},
	}
	out := dedupCandidates(candidates)
	if len(out) != 2 {
		t.Fatalf("len = %d", len(out))
	}
	if out[0].Source != "market:WSOL" {
		t.Errorf("first occurrence must win, got %q", out[0].Source)
	}
}
