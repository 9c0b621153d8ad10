package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"adbot/internal/logger"
	"adbot/internal/telegram/messages"
)

// Run starts long polling and blocks until ctx is cancelled or the poller
// stops on its own. Admins are notified on startup and shutdown, best effort.
func (b *Bot) Run(ctx context.Context) error {
	b.runCtx = ctx

	// a previously configured webhook would starve the long poller
	if err := deleteWebhook(b.cfg.Telegram.Token, true); err != nil {
		logger.Warn(ctx, "tg", "tg.delete_webhook_failed", slog.Any("err", err))
	}

	initBotCommands(b.bot, b.reg)

	logger.Info(ctx, "tg", "tg.polling_started",
		slog.String("payload", b.bot.Me.Username),
	)
	b.notifyAdmins(ctx, messages.StartupNotice(b.version))

	runDone := make(chan struct{})
	go func() {
		b.bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		b.notifyAdmins(context.Background(), messages.ShutdownNotice)
		b.bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	// let background broadcasts finish their progress edits
	b.jobs.Wait()

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// notifyAdmins sends a short notice to every allow-listed admin.
func (b *Bot) notifyAdmins(ctx context.Context, text string) {
	for _, adminID := range b.cfg.Telegram.AdminIDs {
		if err := b.transport.Notify(ctx, adminID, text); err != nil {
			logger.Warn(ctx, "tg", "tg.admin_notice_failed",
				slog.Int64("user_id", adminID),
				slog.Any("err", err),
			)
		}
	}
}

// deleteWebhook clears any webhook registration so getUpdates can be used.
func deleteWebhook(token string, dropPending bool) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	body := "drop_pending_updates=false"
	if dropPending {
		body = "drop_pending_updates=true"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
