// Package telegram sends newly stored jobs and run status to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-jobsearch-automation/internal/models"
)

const maxDescriptionRunes = 300

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    sender
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return &Bot{api: api, chatID: chatID}, nil
}

var markdownReplacer = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

// Inside a MarkdownV2 link target only ")" and "\" need escaping.
func escapeURL(u string) string {
	return strings.NewReplacer("\\", "\\\\", ")", "\\)").Replace(u)
}

func formatJob(job models.JobPosting, score int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 *%s*\n", escapeMarkdown(job.JobTitle))
	fmt.Fprintf(&b, "🏢 %s\n", escapeMarkdown(job.CompanyName))
	if job.SourceURL != nil {
		fmt.Fprintf(&b, "🔗 [View Job](%s)\n", escapeURL(*job.SourceURL))
	}

	loc := "N/A"
	if job.JobLocation != nil && *job.JobLocation != "" {
		loc = *job.JobLocation
	}
	fmt.Fprintf(&b, "📍 %s\n", escapeMarkdown(loc))

	if job.DatePosted != nil && *job.DatePosted != "" {
		fmt.Fprintf(&b, "📅 %s\n", escapeMarkdown(*job.DatePosted))
	}
	if job.EasyApply != nil && *job.EasyApply {
		b.WriteString("⚡ Easy Apply\n")
	}
	if job.JobDescription != nil && *job.JobDescription != "" {
		fmt.Fprintf(&b, "📄 %s\n", escapeMarkdown(truncate(*job.JobDescription, maxDescriptionRunes)))
	}

	fmt.Fprintf(&b, "🤖 Match Score: %d/10\n", score)
	fmt.Fprintf(&b, "🔖 Source: %s\n", escapeMarkdown(job.Source))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}

// NotifyJob posts a newly stored job with a link button.
func (b *Bot) NotifyJob(ctx context.Context, job models.JobPosting, score int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(b.chatID, formatJob(job, score))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if job.SourceURL != nil {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", *job.SourceURL)),
		)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send job: %w", err)
	}
	return nil
}

func (b *Bot) NotifyStatus(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(b.chatID, "ℹ️ "+message)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send status: %w", err)
	}
	return nil
}

func (b *Bot) NotifyError(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	if _, sendErr := b.api.Send(msg); sendErr != nil {
		return fmt.Errorf("telegram send error: %w", sendErr)
	}
	return nil
}
