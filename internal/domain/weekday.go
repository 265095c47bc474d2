package domain

// Canonical weekday names, in calendar order. Day documents inside a week
// are keyed by these exact values and must stay sorted in this order.
var Weekdays = [7]string{
	"Lunes",
	"Martes",
	"Miércoles",
	"Jueves",
	"Viernes",
	"Sábado",
	"Domingo",
}

// WeekdayIndex returns the position of a canonical weekday name,
// or -1 if the name is not one of the seven canonical values.
func WeekdayIndex(name string) int {
	for i, d := range Weekdays {
		if d == name {
			return i
		}
	}
	return -1
}

// IsWeekday reports whether name is one of the canonical weekday names.
func IsWeekday(name string) bool {
	return WeekdayIndex(name) >= 0
}
