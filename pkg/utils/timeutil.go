package utils

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time.Time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// FormatDateIST formats a time.Time to "2006-01-02" in IST.
func FormatDateIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02")
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}

// FormatElapsed renders a stage timing the way the dashboards show it:
// "850ms", "4.25s" or "2m05s".
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// Age renders how long before now t was: "just now", "5m ago", "3h ago",
// "2d ago". A zero t renders as "".
func Age(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
