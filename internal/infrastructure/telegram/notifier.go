package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"DiscountScanner/internal/config"
	"DiscountScanner/internal/domain"
	"DiscountScanner/internal/ports"
)

// Notifier posts run summaries to a Telegram chat through the bot API.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier authenticates the bot. Returns an error when the token is
// rejected so a typo is caught at startup rather than on the first run.
func NewNotifier(cfg config.TelegramConfig) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Notifier{bot: bot, chatID: cfg.ChatID}, nil
}

// PublishSummary sends one Markdown message per finished run.
func (n *Notifier) PublishSummary(ctx context.Context, retailer string, status domain.RunStatus, summary domain.ReconciliationSummary) error {
	if n == nil || n.bot == nil || n.chatID == 0 {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, formatSummary(retailer, status, summary))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func formatSummary(retailer string, status domain.RunStatus, summary domain.ReconciliationSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* scrape finished: %s\n", retailer, status)
	switch status {
	case domain.RunEmpty:
		b.WriteString("No products found, existing discounts kept.")
	default:
		fmt.Fprintf(&b, "Products: %d new, %d updated\n", summary.ProductsCreated, summary.ProductsUpdated)
		fmt.Fprintf(&b, "Discounts: %d active, %d retired", summary.DiscountsCreated, summary.DiscountsDeactivated)
	}
	return b.String()
}
