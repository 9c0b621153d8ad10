// Package messages holds every user-visible text in one place. All texts are
// Russian, matching the bot's audience.
package messages

import "fmt"

// Reply keyboard button labels. Routing matches on these exact strings, so
// they live next to the texts they trigger.
const (
	BtnPlaceAd    = "📢 Разместить рекламу"
	BtnMyAds      = "📋 Мои объявления"
	BtnBalance    = "💰 Баланс"
	BtnHelp       = "🆘 Помощь"
	BtnHome       = "◀️ На главную"
	BtnBack       = "◀️ Назад"
	BtnSkip       = "Пропустить"
	BtnCancel     = "❌ Отмена"
	BtnAdminPanel = "👑 Админ-панель"
	BtnStats      = "📈 Статистика"
	BtnBroadcast  = "📢 Рассылка"
	BtnModerate   = "✅ Модерация"
)

const (
	Start           = "👋 Добро пожаловать в рекламного бота!"
	ChannelChoice   = "📢 Выберите канал для рекламы:"
	ChannelsLoading = "⏳ Загрузка доступных каналов..."
	ChannelInvalid  = "❌ Пожалуйста, выберите канал из списка ниже:"
	DurationInvalid = "❌ Пожалуйста, выберите срок из списка ниже:"
	MediaInvalid    = "❌ Отправьте фото/видео или нажмите 'Пропустить'"
	Cancelled       = "❌ Действие отменено."
	GenericError    = "⚠️ Произошла ошибка, попробуйте позже"
	AdSaveError     = "⚠️ Не удалось сохранить объявление, попробуйте ещё раз"
	PaymentFailed   = "⚠️ Оплата не прошла, объявление ожидает оплаты"
	AccessDenied    = "⛔ Доступ запрещён!"
	TooManyRequests = "⚠️ Слишком много запросов! Пожалуйста, подождите."
	UnknownInput    = "🤔 Не понимаю. Воспользуйтесь кнопками меню."

	Help = "🆘 <b>Помощь</b>\n\n" +
		"📢 Разместить рекламу - создать объявление для размещения в канале\n" +
		"📋 Мои объявления - список ваших объявлений и их статусы\n" +
		"💰 Баланс - пополнение и история платежей\n\n" +
		"По вопросам обращайтесь к администратору."

	AdminPanel = "🛠️ <b>Админ-панель</b>\nВыберите действие:"

	BroadcastPrompt = "📢 <b>Создание рассылки</b>\n" +
		"Отправьте сообщение для рассылки (текст, фото или видео):"
	BroadcastStarted = "⏳ Начинаю рассылку..."

	ModerationEmpty = "ℹ️ Нет объявлений для модерации"

	MyAdsEmpty = "📋 У вас пока нет объявлений"

	Balance = "💰 <b>Ваш баланс:</b> 0 руб\n\nВыберите действие:"
)

// DurationChoice prompts for the placement period after a channel is chosen.
func DurationChoice(channel string) string {
	return fmt.Sprintf("Выбран канал: <b>%s</b>\nТеперь выберите срок размещения:", channel)
}

// MediaPrompt recaps the selection and asks for an optional attachment.
func MediaPrompt(channel, duration string, price int, currency string) string {
	return fmt.Sprintf("📌 <b>Вы выбрали:</b>\nКанал: %s\nСрок: %s\nЦена: %d %s\n\n"+
		"Отправьте фото/видео для объявления (или нажмите 'Пропустить'):",
		channel, duration, price, currency)
}

// TextPrompt asks for the ad copy within the configured bounds.
func TextPrompt(minLen, maxLen int, withMedia bool) string {
	head := ""
	if withMedia {
		head = "🖼️ Медиа-контент сохранён!\n\n"
	}
	return fmt.Sprintf("%sВведите текст объявления (от %d до %d символов):", head, minLen, maxLen)
}

// TextTooShort is the corrective notice for undersized ad copy.
func TextTooShort(minLen int) string {
	return fmt.Sprintf("❌ Текст слишком короткий, минимум %d символов", minLen)
}

// TextTooLong is the corrective notice for oversized ad copy.
func TextTooLong(maxLen int) string {
	return fmt.Sprintf("❌ Превышен лимит в %d символов", maxLen)
}

// AdConfirmation is shown to the user once the ad is stored.
func AdConfirmation(channel, duration string, price int, currency, text string) string {
	return fmt.Sprintf("✅ <b>Объявление успешно создано!</b>\n\n"+
		"📢 Канал: %s\n⏳ Срок: %s\n💰 Стоимость: %d %s\n\n"+
		"📝 Текст объявления:\n%s\n\n"+
		"Ожидайте подтверждения модератора.",
		channel, duration, price, currency, text)
}

// AdApproved notifies the owner about a moderator approval.
func AdApproved(adID int64, channel, duration, preview string) string {
	return fmt.Sprintf("✅ Ваше объявление #%d одобрено!\nКанал: %s\nСрок: %s\n\nТекст: %s",
		adID, channel, duration, preview)
}

// AdRejected notifies the owner about a moderator rejection.
func AdRejected(adID int64, preview string) string {
	return fmt.Sprintf("❌ Ваше объявление #%d отклонено\nПричина: не соответствует правилам\n\nТекст: %s",
		adID, preview)
}

// ModerationHeader opens the pending ads list.
func ModerationHeader(found, shown int) string {
	return fmt.Sprintf("⏳ <b>Ожидающие модерации:</b>\nНайдено: %d\n\nПоследние %d объявлений:", found, shown)
}

// ModerationCard renders one pending ad inside the moderation list.
func ModerationCard(adID int64, channel, duration string, price int, currency, text string) string {
	return fmt.Sprintf("#%d | %s | %s | %d %s\n%s", adID, channel, duration, price, currency, text)
}

// BroadcastDone summarizes a finished broadcast.
func BroadcastDone(success, failed int) string {
	return fmt.Sprintf("📢 <b>Рассылка завершена</b>\n\n✅ Успешно: %d\n❌ Не удалось: %d", success, failed)
}

// Stats renders the admin statistics screen.
func Stats(totalUsers, newUsers24h, totalAds, pendingAds, approvedAds, rejectedAds int) string {
	return fmt.Sprintf("📊 <b>Статистика бота</b>\n\n"+
		"👥 Всего пользователей: <b>%d</b>\n"+
		"🆕 Новых за сутки: <b>%d</b>\n\n"+
		"📢 Всего объявлений: <b>%d</b>\n"+
		"⏳ На модерации: <b>%d</b>\n"+
		"✅ Одобрено: <b>%d</b>\n"+
		"❌ Отклонено: <b>%d</b>",
		totalUsers, newUsers24h, totalAds, pendingAds, approvedAds, rejectedAds)
}

// MyAdsLine renders one ad row in the user's ads list.
func MyAdsLine(adID int64, channel, duration, status string, price int, currency string) string {
	icon := map[string]string{
		"pending":  "⏳",
		"approved": "✅",
		"rejected": "❌",
	}[status]
	if icon == "" {
		icon = "❓"
	}
	return fmt.Sprintf("%s #%d | %s | %s | %d %s", icon, adID, channel, duration, price, currency)
}

// StartupNotice is sent to admins when the bot comes online.
func StartupNotice(version string) string {
	return fmt.Sprintf("🟢 Бот запущен (версия %s)", version)
}

// ShutdownNotice is sent to admins before the bot stops.
const ShutdownNotice = "🔴 Бот останавливается"
