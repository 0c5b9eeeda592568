// Package locale holds the English and Arabic strings used in notifications
// and chat replies.
package locale

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"muadhin/internal/models"
)

// Texts is the string table for one language.
type Texts struct {
	Lang           models.Language
	UpcomingPrayer string
	InMinutes      string // contains {min}
	PrayerNow      string
	TestTitle      string
	TestBody       string
	NextPrayer     string
	AllPassed      string
	NoCity         string
	Subscribed     string
	Unsubscribed   string
	TestSent       string
	InvalidInput   string
	names          map[models.PrayerID]string
}

var english = Texts{
	Lang:           models.LangEnglish,
	UpcomingPrayer: "Upcoming Prayer",
	InMinutes:      "Prayer time in {min} minutes",
	PrayerNow:      "It is time for prayer",
	TestTitle:      "Test Notification",
	TestBody:       "This is how your prayer alerts will sound.",
	NextPrayer:     "Next prayer",
	AllPassed:      "All prayers for today have passed.",
	NoCity:         "No location selected yet.",
	Subscribed:     "Reminders are on. You will get a message before each enabled prayer.",
	Unsubscribed:   "Reminders are off.",
	TestSent:       "Test notification sent.",
	InvalidInput:   "Prayer times cannot be computed for this location and date.",
	names: map[models.PrayerID]string{
		models.Fajr:    "Fajr",
		models.Sunrise: "Sunrise",
		models.Dhuhr:   "Dhuhr",
		models.Asr:     "Asr",
		models.Maghrib: "Maghrib",
		models.Isha:    "Isha",
	},
}

var arabic = Texts{
	Lang:           models.LangArabic,
	UpcomingPrayer: "الصلاة القادمة",
	InMinutes:      "موعد الصلاة بعد {min} دقيقة",
	PrayerNow:      "حان الآن موعد الصلاة",
	TestTitle:      "إشعار تجريبي",
	TestBody:       "هكذا ستبدو تنبيهات الصلاة.",
	NextPrayer:     "الصلاة التالية",
	AllPassed:      "انتهت صلوات اليوم.",
	NoCity:         "لم يتم اختيار موقع بعد.",
	Subscribed:     "تم تفعيل التذكير قبل كل صلاة مفعلة.",
	Unsubscribed:   "تم إيقاف التذكير.",
	TestSent:       "تم إرسال إشعار تجريبي.",
	InvalidInput:   "لا يمكن حساب مواقيت الصلاة لهذا الموقع والتاريخ.",
	names: map[models.PrayerID]string{
		models.Fajr:    "الفجر",
		models.Sunrise: "الشروق",
		models.Dhuhr:   "الظهر",
		models.Asr:     "العصر",
		models.Maghrib: "المغرب",
		models.Isha:    "العشاء",
	},
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Arabic})

// For returns the table for lang, English when unknown.
func For(lang models.Language) Texts {
	if lang == models.LangArabic {
		return arabic
	}
	return english
}

// Negotiate maps an Accept-Language value or a bare tag ("ar-SA") to a
// supported language.
func Negotiate(accept string) models.Language {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return models.LangEnglish
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No || idx != 1 {
		return models.LangEnglish
	}
	return models.LangArabic
}

// Name returns the localized prayer name.
func (t Texts) Name(id models.PrayerID) string {
	if n, ok := t.names[id]; ok {
		return n
	}
	return string(id)
}

// EnglishName and ArabicName give both names regardless of the UI language.
func EnglishName(id models.PrayerID) string { return english.Name(id) }

func ArabicName(id models.PrayerID) string { return arabic.Name(id) }

// AlarmBody renders the reminder text for a prayer with the given lead time.
func (t Texts) AlarmBody(offsetMinutes int, id models.PrayerID) string {
	head := t.PrayerNow
	if offsetMinutes > 0 {
		head = strings.ReplaceAll(t.InMinutes, "{min}", strconv.Itoa(offsetMinutes))
	}
	return head + " (" + t.Name(id) + ")"
}
