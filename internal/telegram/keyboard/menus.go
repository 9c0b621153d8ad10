package keyboard

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"adbot/internal/config"
	"adbot/internal/telegram/messages"
)

// Callback uniques for the moderation list.
const (
	CallbackApprove = "mod_approve"
	CallbackReject  = "mod_reject"
	CallbackRefresh = "mod_refresh"
)

// MainMenu is the top-level reply keyboard. Admins get an extra row.
func MainMenu(isAdmin bool) *tele.ReplyMarkup {
	rows := [][]string{
		{messages.BtnPlaceAd, messages.BtnMyAds},
		{messages.BtnBalance, messages.BtnHelp},
	}
	if isAdmin {
		rows = append(rows, []string{messages.BtnAdminPanel})
	}
	return ReplyButtons(rows...)
}

// Channels lists the configured publishing channels two per row.
func Channels(channels []config.Channel) *tele.ReplyMarkup {
	labels := make([]string, 0, len(channels))
	for _, ch := range channels {
		labels = append(labels, ch.Name)
	}
	rows := ChunkLabels(labels, 2)
	rows = append(rows, []string{messages.BtnBack})
	return ReplyButtons(rows...)
}

// Durations lists the configured price tiers two per row.
func Durations(tiers []config.PriceTier) *tele.ReplyMarkup {
	labels := make([]string, 0, len(tiers))
	for _, t := range tiers {
		labels = append(labels, t.Duration)
	}
	rows := ChunkLabels(labels, 2)
	rows = append(rows, []string{messages.BtnBack})
	return ReplyButtons(rows...)
}

// Media offers skipping the attachment or stepping back.
func Media() *tele.ReplyMarkup {
	return ReplyButtons(
		[]string{messages.BtnSkip},
		[]string{messages.BtnBack},
	)
}

// AdminPanel is the admin reply keyboard.
func AdminPanel() *tele.ReplyMarkup {
	return ReplyButtons(
		[]string{messages.BtnStats},
		[]string{messages.BtnBroadcast},
		[]string{messages.BtnModerate},
		[]string{messages.BtnHome},
	)
}

// Moderation builds approve/reject rows for each pending ad id plus a
// refresh row.
func Moderation(adIDs []int64) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(adIDs)+1)
	for _, id := range adIDs {
		payload := fmt.Sprintf("%d", id)
		rows = append(rows, []InlineBtn{
			{Text: fmt.Sprintf("✅ Одобрить #%d", id), Unique: CallbackApprove, Data: payload},
			{Text: fmt.Sprintf("❌ Отклонить #%d", id), Unique: CallbackReject, Data: payload},
		})
	}
	rows = append(rows, []InlineBtn{
		{Text: "🔄 Обновить список", Unique: CallbackRefresh, Data: "all"},
	})
	return InlineButtonsRows(rows...)
}
