package dexscreener

import "github.com/bytedance/sonic"

// TokenInfo 交易对一侧的代币信息
type TokenInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// TxnStat 单窗口买卖笔数
type TxnStat struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Txns 各时间窗口的交易统计
type Txns struct {
	M5  TxnStat `json:"m5"`
	H1  TxnStat `json:"h1"`
	H6  TxnStat `json:"h6"`
	H24 TxnStat `json:"h24"`
}

// UnmarshalJSON 兼容上游两种窗口键名写法，m5/h1 与 5m/1h 都接受
func (t *Txns) UnmarshalJSON(data []byte) error {
	raw := map[string]TxnStat{}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.M5 = pickTxnWindow(raw, "m5", "5m")
	t.H1 = pickTxnWindow(raw, "h1", "1h")
	t.H6 = pickTxnWindow(raw, "h6", "6h")
	t.H24 = pickTxnWindow(raw, "h24", "24h")
	return nil
}

// Volume 各时间窗口的成交额（USD），缺失时为 nil
type Volume struct {
	M5  *float64 `json:"m5"`
	H1  *float64 `json:"h1"`
	H6  *float64 `json:"h6"`
	H24 *float64 `json:"h24"`
}

// UnmarshalJSON 兼容上游两种窗口键名写法，m5/h1 与 5m/1h 都接受
func (v *Volume) UnmarshalJSON(data []byte) error {
	raw := map[string]*float64{}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.M5 = pickFloatWindow(raw, "m5", "5m")
	v.H1 = pickFloatWindow(raw, "h1", "1h")
	v.H6 = pickFloatWindow(raw, "h6", "6h")
	v.H24 = pickFloatWindow(raw, "h24", "24h")
	return nil
}

func pickTxnWindow(raw map[string]TxnStat, primary, alt string) TxnStat {
	if v, ok := raw[primary]; ok {
		return v
	}
	return raw[alt]
}

func pickFloatWindow(raw map[string]*float64, primary, alt string) *float64 {
	if v, ok := raw[primary]; ok && v != nil {
		return v
	}
	return raw[alt]
}

// PriceChange 各时间窗口的价格涨跌幅（百分比），缺失时为 nil
type PriceChange struct {
	M5  *float64 `json:"m5"`
	H1  *float64 `json:"h1"`
	H6  *float64 `json:"h6"`
	H24 *float64 `json:"h24"`
}

// Liquidity 流动性信息
type Liquidity struct {
	Usd   *float64 `json:"usd"`
	Base  float64  `json:"base"`
	Quote float64  `json:"quote"`
}

// Website 官网链接
type Website struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Social 社交链接
type Social struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Info 交易对附加信息，profile 缺失时整个结构为 nil
type Info struct {
	ImageURL  string    `json:"imageUrl"`
	Header    string    `json:"header"`
	OpenGraph string    `json:"openGraph"`
	Websites  []Website `json:"websites"`
	Socials   []Social  `json:"socials"`
}

// Boosts 付费加速信息
type Boosts struct {
	Active int `json:"active"`
}

// Pair DexScreener 交易对快照
type Pair struct {
	ChainID       string      `json:"chainId"`
	DexID         string      `json:"dexId"`
	URL           string      `json:"url"`
	PairAddress   string      `json:"pairAddress"`
	Labels        []string    `json:"labels"`
	BaseToken     TokenInfo   `json:"baseToken"`
	QuoteToken    TokenInfo   `json:"quoteToken"`
	PriceNative   string      `json:"priceNative"`
	PriceUsd      string      `json:"priceUsd"`
	Txns          Txns        `json:"txns"`
	Volume        Volume      `json:"volume"`
	PriceChange   PriceChange `json:"priceChange"`
	Liquidity     *Liquidity  `json:"liquidity"`
	Fdv           *float64    `json:"fdv"`
	MarketCap     *float64    `json:"marketCap"`
	PairCreatedAt int64       `json:"pairCreatedAt"`
	Info          *Info       `json:"info"`
	Boosts        *Boosts     `json:"boosts"`
}

// TokenProfile 最新代币档案条目
type TokenProfile struct {
	URL          string `json:"url"`
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Icon         string `json:"icon"`
	Header       string `json:"header"`
	Description  string `json:"description"`
}

// TokenBoost 最新付费加速条目
type TokenBoost struct {
	URL          string  `json:"url"`
	ChainID      string  `json:"chainId"`
	TokenAddress string  `json:"tokenAddress"`
	Amount       float64 `json:"amount"`
	TotalAmount  float64 `json:"totalAmount"`
}

// HasProfile 判断交易对是否带有档案信息
func (p *Pair) HasProfile() bool {
	if p.Info == nil {
		return false
	}
	if p.Info.ImageURL != "" || p.Info.Header != "" || p.Info.OpenGraph != "" {
		return true
	}
	return len(p.Info.Websites) > 0 || len(p.Info.Socials) > 0
}

// HotScore 热度评分，流动性加1小时成交额
func (p *Pair) HotScore() float64 {
	score := 0.0
	if p.Liquidity != nil && p.Liquidity.Usd != nil {
		score += *p.Liquidity.Usd
	}
	if p.Volume.H1 != nil {
		score += *p.Volume.H1
	}
	return score
}
