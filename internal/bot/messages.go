package bot

// Command help and menu labels. Reminder and schedule wording comes from
// the locale tables so it follows the configured language.

const msgHelp = `<b>Muadhin</b> sends a reminder before each enabled prayer.

/start - deliver reminders to this chat
/stop - turn reminders off
/times - today's prayer times and the next prayer
/test - send a test notification
/help - this message

Pick the location, calculation method and reminder lead time in the settings API.`

const (
	msgError = "Something went wrong. Please try again later."
)

// ── Reply keyboard ───────────────────────────────────────────────────

const (
	menuBtnTimes = "🕌 Times"
	menuBtnTest  = "🔔 Test"
	menuBtnStop  = "🔕 Stop"
	menuBtnHelp  = "❓ Help"
)

// ── /times ───────────────────────────────────────────────────────────

const (
	msgTimesHeader   = "<b>%s</b>, %s\n<i>%s</i>\n\n"
	msgTimesLine     = "%s  <code>%s</code>  %s\n"
	msgTimesLineNext = "▶ <b>%s  <code>%s</code>  %s</b>\n"
	msgTimesNext     = "\n%s: <b>%s</b> (%s)"
	msgTimesStale    = "\n\n⚠️ %s"
)

// ── Delivery ─────────────────────────────────────────────────────────

const msgNotification = "🔔 <b>%s</b>\n%s"
