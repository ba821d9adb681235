package dexscreener

import (
	"testing"

	"github.com/bytedance/sonic"
)

func TestPairDecodeStandardWindowKeys(t *testing.T) {
	raw := `{
		"chainId": "solana",
		"pairAddress": "PAIR1",
		"priceUsd": "0.0025",
		"txns": {"m5": {"buys": 12, "sells": 4}, "h1": {"buys": 80, "sells": 40}},
		"volume": {"m5": 12000, "h1": 60000, "h24": 250000}
	}`
	var pair Pair
	if err := sonic.Unmarshal([]byte(raw), &pair); err != nil {
		t.Fatal(err)
	}
	if pair.Txns.M5.Buys != 12 || pair.Txns.H1.Sells != 40 {
		t.Errorf("txns = %+v", pair.Txns)
	}
	if pair.Volume.M5 == nil || *pair.Volume.M5 != 12000 {
		t.Errorf("volume m5 = %v", pair.Volume.M5)
	}
	if pair.Volume.H24 == nil || *pair.Volume.H24 != 250000 {
		t.Errorf("volume h24 = %v", pair.Volume.H24)
	}
}

func TestPairDecodeAlternateWindowKeys(t *testing.T) {
	// 上游偶尔用 5m/1h 这种写法发窗口键
	raw := `{
		"chainId": "solana",
		"pairAddress": "PAIR1",
		"priceUsd": "0.0025",
		"txns": {"5m": {"buys": 12, "sells": 4}, "1h": {"buys": 80, "sells": 40}, "24h": {"buys": 500, "sells": 300}},
		"volume": {"5m": 12000, "1h": 60000, "6h": 120000, "24h": 250000}
	}`
	var pair Pair
	if err := sonic.Unmarshal([]byte(raw), &pair); err != nil {
		t.Fatal(err)
	}
	if pair.Txns.M5.Buys != 12 || pair.Txns.M5.Sells != 4 {
		t.Errorf("txns m5 = %+v", pair.Txns.M5)
	}
	if pair.Txns.H1.Buys != 80 || pair.Txns.H24.Sells != 300 {
		t.Errorf("txns = %+v", pair.Txns)
	}
	if pair.Volume.M5 == nil || *pair.Volume.M5 != 12000 {
		t.Errorf("volume m5 = %v", pair.Volume.M5)
	}
	if pair.Volume.H1 == nil || *pair.Volume.H1 != 60000 {
		t.Errorf("volume h1 = %v", pair.Volume.H1)
	}
	if pair.Volume.H6 == nil || *pair.Volume.H6 != 120000 {
		t.Errorf("volume h6 = %v", pair.Volume.H6)
	}
}

func TestPairDecodePrefersStandardKeyWhenBothPresent(t *testing.T) {
	raw := `{"volume": {"h1": 60000, "1h": 999}}`
	var pair Pair
	if err := sonic.Unmarshal([]byte(raw), &pair); err != nil {
		t.Fatal(err)
	}
	if pair.Volume.H1 == nil || *pair.Volume.H1 != 60000 {
		t.Errorf("volume h1 = %v", pair.Volume.H1)
	}
}
