package analytics

import (
	"strconv"
	"strings"
	"time"

	"securereport/core/reports"
)

const (
	LangArabic  = "ar"
	LangEnglish = "en"
)

var ar = map[string]string{
	"chart.title.time_series": "عدد البلاغات",
	"chart.title.by_type":     "البلاغات حسب النوع",
	"chart.title.by_status":   "البلاغات حسب الحالة",
	"chart.axis.count":        "العدد",
	"chart.axis.day":          "اليوم",
	"chart.axis.week":         "الأسبوع",
	"chart.axis.month":        "الشهر",
	"chart.axis.type":         "النوع",
	"chart.axis.status":       "الحالة",
	"weekday.monday":          "الاثنين",
	"weekday.tuesday":         "الثلاثاء",
	"weekday.wednesday":       "الأربعاء",
	"weekday.thursday":        "الخميس",
	"weekday.friday":          "الجمعة",
	"weekday.saturday":        "السبت",
	"weekday.sunday":          "الأحد",
	"month.january":           "يناير",
	"month.february":          "فبراير",
	"month.march":             "مارس",
	"month.april":             "أبريل",
	"month.may":               "مايو",
	"month.june":              "يونيو",
	"month.july":              "يوليو",
	"month.august":            "أغسطس",
	"month.september":         "سبتمبر",
	"month.october":           "أكتوبر",
	"month.november":          "نوفمبر",
	"month.december":          "ديسمبر",
	"week.prefix":             "الأسبوع",
	"status.received":         "تم استلام البلاغ",
	"status.under_review":     "قيد المراجعة",
	"status.in_progress":      "قيد المعالجة",
	"status.resolved":         "تم الحل",
	"status.closed":           "تم الإغلاق",
	"category.assault":        "اعتداء",
	"category.blackmail":      "ابتزاز",
	"category.harassment":     "تحرش",
	"category.theft":          "سرقة",
	"category.altercation":    "مشادة",
}

var en = map[string]string{
	"chart.title.time_series": "Reports over time",
	"chart.title.by_type":     "Reports by type",
	"chart.title.by_status":   "Reports by status",
	"chart.axis.count":        "Count",
	"chart.axis.day":          "Day",
	"chart.axis.week":         "Week",
	"chart.axis.month":        "Month",
	"chart.axis.type":         "Type",
	"chart.axis.status":       "Status",
	"weekday.monday":          "Monday",
	"weekday.tuesday":         "Tuesday",
	"weekday.wednesday":       "Wednesday",
	"weekday.thursday":        "Thursday",
	"weekday.friday":          "Friday",
	"weekday.saturday":        "Saturday",
	"weekday.sunday":          "Sunday",
	"month.january":           "January",
	"month.february":          "February",
	"month.march":             "March",
	"month.april":             "April",
	"month.may":               "May",
	"month.june":              "June",
	"month.july":              "July",
	"month.august":            "August",
	"month.september":         "September",
	"month.october":           "October",
	"month.november":          "November",
	"month.december":          "December",
	"week.prefix":             "Week",
	"status.received":         "Received",
	"status.under_review":     "Under review",
	"status.in_progress":      "In progress",
	"status.resolved":         "Resolved",
	"status.closed":           "Closed",
	"category.assault":        "Assault",
	"category.blackmail":      "Blackmail",
	"category.harassment":     "Harassment",
	"category.theft":          "Theft",
	"category.altercation":    "Altercation",
}

// NormalizeLang maps anything but "en" to Arabic.
func NormalizeLang(lang string) string {
	if strings.EqualFold(strings.TrimSpace(lang), LangEnglish) {
		return LangEnglish
	}
	return LangArabic
}

func SupportedLang(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", LangArabic, LangEnglish:
		return true
	}
	return false
}

func Localized(lang, key string) string {
	if NormalizeLang(lang) == LangEnglish {
		if val, ok := en[key]; ok {
			return val
		}
	}
	if val, ok := ar[key]; ok {
		return val
	}
	return key
}

func WeekdayLabel(lang string, d time.Weekday) string {
	return Localized(lang, "weekday."+strings.ToLower(d.String()))
}

func MonthLabel(lang string, m time.Month) string {
	return Localized(lang, "month."+strings.ToLower(m.String()))
}

func WeekLabel(lang string, n int) string {
	return Localized(lang, "week.prefix") + " " + strconv.Itoa(n)
}

// CategoryLabel localises known categories; unknown ones keep their raw value.
func CategoryLabel(lang string, c reports.Category) string {
	if !c.Known() {
		return string(c)
	}
	return Localized(lang, "category."+string(c))
}

func StatusLabel(lang string, s reports.Status) string {
	if !s.Known() {
		return string(s)
	}
	return Localized(lang, "status."+string(s))
}
