package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"taskmate/internal/automation"
	"taskmate/internal/model"
)

const telegramQueueSize = 32

// sender is the part of the bot API used for delivery.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers notifications to one chat. TaskMaterialized only enqueues;
// Run does the sending.
type Telegram struct {
	api    sender
	chatID int64
	log    zerolog.Logger
	queue  chan string
}

// NewTelegram authorizes the bot token against the Telegram API.
func NewTelegram(token string, chatID int64, log zerolog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info().Str("account", api.Self.UserName).Msg("telegram notifier authorized")
	return newTelegram(api, chatID, log), nil
}

func newTelegram(api sender, chatID int64, log zerolog.Logger) *Telegram {
	return &Telegram{
		api:    api,
		chatID: chatID,
		log:    log,
		queue:  make(chan string, telegramQueueSize),
	}
}

// TaskMaterialized never blocks; when the queue is full the message is dropped.
func (t *Telegram) TaskMaterialized(rule automation.Rule, task *model.Task) {
	select {
	case t.queue <- formatMaterialized(rule, task):
	default:
		t.log.Warn().Str("task_id", task.ID).Msg("telegram queue full, notification dropped")
	}
}

// Run sends queued messages until ctx is cancelled.
func (t *Telegram) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-t.queue:
			msg := tgbotapi.NewMessage(t.chatID, text)
			msg.ParseMode = tgbotapi.ModeHTML
			if _, err := t.api.Send(msg); err != nil {
				t.log.Error().Err(err).Int64("chat_id", t.chatID).Msg("send telegram notification")
			}
		}
	}
}

func formatMaterialized(rule automation.Rule, task *model.Task) string {
	var sb strings.Builder
	sb.WriteString("🤖 <b>Automated task created</b>\n")
	sb.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	sb.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", escape(string(task.Priority))))
	if task.DueDate != nil {
		sb.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate.Format("2006-01-02")))
	}
	sb.WriteString(fmt.Sprintf("♻️ repeats %s", escape(string(rule.Frequency))))
	return sb.String()
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
