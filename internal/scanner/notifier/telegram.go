package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trench-radar/internal/scanner/config"

	"go.uber.org/zap"
	"resty.dev/v3"
)

// TelegramNotifier 通过 Bot API 推送提醒
type TelegramNotifier struct {
	cfg    config.TelegramConfig
	client *resty.Client
	logger *zap.Logger
}

// NewTelegramNotifier 创建 Telegram 通道
func NewTelegramNotifier(cfg config.TelegramConfig, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		cfg:    cfg,
		client: resty.New().SetTimeout(10 * time.Second),
		logger: logger,
	}
}

type telegramResponse struct {
	Ok     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}

func (t *TelegramNotifier) PostAlert(ctx context.Context, destinations []string, payload *AlertPayload) []MessageRef {
	text := t.render(payload)
	var refs []MessageRef
	for _, dest := range destinations {
		var resp telegramResponse
		_, err := t.client.R().
			SetContext(ctx).
			SetBody(map[string]interface{}{
				"chat_id":                  dest,
				"text":                     text,
				"parse_mode":               "HTML",
				"disable_web_page_preview": true,
			}).
			SetResult(&resp).
			Post(t.apiURL("sendMessage"))
		if err != nil || !resp.Ok {
			t.logger.Warn("❌ telegram alert delivery failed",
				zap.String("destination", dest),
				zap.String("description", resp.Description),
				zap.Error(err))
			continue
		}
		refs = append(refs, MessageRef{Destination: dest, MessageID: resp.Result.MessageID})
	}
	return refs
}

func (t *TelegramNotifier) EditAlert(ctx context.Context, ref MessageRef, payload *AlertPayload) error {
	var resp telegramResponse
	_, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":                  ref.Destination,
			"message_id":               ref.MessageID,
			"text":                     t.render(payload),
			"parse_mode":               "HTML",
			"disable_web_page_preview": true,
		}).
		SetResult(&resp).
		Post(t.apiURL("editMessageText"))
	if err != nil {
		return err
	}
	if !resp.Ok {
		return fmt.Errorf("telegram edit rejected: %s", resp.Description)
	}
	return nil
}

func (t *TelegramNotifier) PostFollowup(ctx context.Context, destination string, payload *AlertPayload) error {
	var resp telegramResponse
	_, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":                  destination,
			"text":                     renderEnrichment(payload),
			"parse_mode":               "HTML",
			"disable_web_page_preview": true,
		}).
		SetResult(&resp).
		Post(t.apiURL("sendMessage"))
	if err != nil {
		return err
	}
	if !resp.Ok {
		return fmt.Errorf("telegram followup rejected: %s", resp.Description)
	}
	return nil
}

func (t *TelegramNotifier) apiURL(method string) string {
	return fmt.Sprintf("https://api.telegram.org/bot%s/%s", t.cfg.BotToken, method)
}

func (t *TelegramNotifier) render(p *AlertPayload) string {
	text := renderAlert(p)
	if t.cfg.Tagline != "" {
		text += "\n" + escapeHTML(t.cfg.Tagline)
	}
	return text
}

func renderAlert(p *AlertPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 <b>%s</b> (%s)\n", escapeHTML(p.Symbol), escapeHTML(p.Name))
	fmt.Fprintf(&b, "Price: $%.8f\n", p.PriceUsd)
	if p.MarketCap != nil {
		fmt.Fprintf(&b, "%s: $%.0f\n", p.MarketCapLabel, *p.MarketCap)
	}
	if p.LiquidityUsd != nil {
		fmt.Fprintf(&b, "Liquidity: $%.0f\n", *p.LiquidityUsd)
	}
	if p.Volume1h != nil {
		fmt.Fprintf(&b, "Volume 1h: $%.0f\n", *p.Volume1h)
	}
	if p.Change1h != nil && p.Change6h != nil && p.Change24h != nil {
		fmt.Fprintf(&b, "Change: 1h %+.1f%% / 6h %+.1f%% / 24h %+.1f%%\n",
			*p.Change1h, *p.Change6h, *p.Change24h)
	}
	fmt.Fprintf(&b, "Flow: %d/100 (%s)\n", p.Flow.Score, p.Flow.Label)
	if p.PairURL != "" {
		fmt.Fprintf(&b, "<a href=\"%s\">chart</a>\n", p.PairURL)
	}
	fmt.Fprintf(&b, "<code>%s</code>", p.TokenAddress)

	if p.Wallet != nil || p.Intent != nil {
		b.WriteString("\n\n")
		b.WriteString(renderEnrichment(p))
	}
	return b.String()
}

func renderEnrichment(p *AlertPayload) string {
	var b strings.Builder
	if p.Wallet != nil {
		fmt.Fprintf(&b, "👛 Buyers: %d, fresh %d", p.Wallet.UniqueBuyers, p.Wallet.FreshWallets)
		if p.Wallet.FreshRatio != nil {
			fmt.Fprintf(&b, " (%.0f%%)", *p.Wallet.FreshRatio*100)
		}
		if p.Wallet.MedianSol != nil {
			fmt.Fprintf(&b, ", median %.2f SOL", *p.Wallet.MedianSol)
		}
		if p.Wallet.Partial {
			b.WriteString(" [partial]")
		}
		b.WriteString("\n")
	}
	if p.Intent != nil {
		fmt.Fprintf(&b, "🎯 Intent: %d/3", p.Intent.Score)
		if p.Intent.SellRatio != nil {
			fmt.Fprintf(&b, ", sell ratio %.0f%%", *p.Intent.SellRatio*100)
		}
		if p.Intent.Partial {
			b.WriteString(" [partial]")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
