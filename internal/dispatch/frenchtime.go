package dispatch

import (
	"fmt"
	"time"
)

var (
	frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
	frenchMonths   = [...]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"}
)

// FormatFrenchTime renders t as "jeudi 15 octobre 2026 à 14:03".
func FormatFrenchTime(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d à %02d:%02d",
		frenchWeekdays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
