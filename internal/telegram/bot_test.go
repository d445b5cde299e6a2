package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobsearch-automation/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func ptr[T any](v T) *T { return &v }

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `Acme \(Vietnam\) Co\. \- R&D`, escapeMarkdown("Acme (Vietnam) Co. - R&D"))
	assert.Equal(t, `go\_dev \*senior\* \[x\]`, escapeMarkdown("go_dev *senior* [x]"))
	assert.Equal(t, `https://x.io/a\)b`, escapeURL("https://x.io/a)b"))
}

func TestNotifyJob(t *testing.T) {
	fs := &fakeSender{}
	bot := &Bot{api: fs, chatID: 42}
	job := models.JobPosting{
		JobTitle:    "Go Developer",
		CompanyName: "Acme Labs",
		Source:      "linkedin",
		SourceURL:   ptr("https://www.linkedin.com/jobs/view/1/"),
		JobLocation: ptr("Ho Chi Minh City"),
		DatePosted:  ptr("3 days ago"),
		EasyApply:   ptr(true),
	}

	require.NoError(t, bot.NotifyJob(context.Background(), job, 7))
	require.Len(t, fs.sent, 1)
	msg := fs.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Contains(t, msg.Text, "💼 *Go Developer*")
	assert.Contains(t, msg.Text, "🔗 [View Job](https://www.linkedin.com/jobs/view/1/)")
	assert.Contains(t, msg.Text, "📍 Ho Chi Minh City")
	assert.Contains(t, msg.Text, "⚡ Easy Apply")
	assert.Contains(t, msg.Text, "🤖 Match Score: 7/10")
	assert.NotNil(t, msg.ReplyMarkup)
}

func TestNotifyJobWithoutURL(t *testing.T) {
	fs := &fakeSender{}
	bot := &Bot{api: fs, chatID: 1}
	require.NoError(t, bot.NotifyJob(context.Background(), models.JobPosting{JobTitle: "Go", CompanyName: "A"}, 0))
	assert.Contains(t, fs.sent[0].Text, "📍 N/A")
	assert.Nil(t, fs.sent[0].ReplyMarkup)
}

func TestNotifyErrors(t *testing.T) {
	fs := &fakeSender{err: errors.New("boom")}
	bot := &Bot{api: fs, chatID: 1}
	assert.ErrorContains(t, bot.NotifyStatus(context.Background(), "done"), "boom")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bot.NotifyStatus(ctx, "done"), context.Canceled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate(" abc ", 5))
	assert.Equal(t, "Cần…", truncate("Cần Thơ", 3))
}
