package Models

// Status is the classification of a single answer. The zero value is the
// unanswered state and is never persisted.
type Status string

const (
	StatusUnset Status = ""
	StatusOK    Status = "ok"
	StatusNOK   Status = "nok"
	StatusNA    Status = "na"
)

// AnswerStatuses lists the persistable statuses in display order.
var AnswerStatuses = []Status{StatusOK, StatusNOK, StatusNA}

// Valid reports whether s is a known status, unset included.
func (s Status) Valid() bool {
	switch s {
	case StatusUnset, StatusOK, StatusNOK, StatusNA:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNOK:
		return "NOK"
	case StatusNA:
		return "N/A"
	}
	return "-"
}

type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftNight     Shift = "night"
)

var Shifts = []Shift{ShiftMorning, ShiftAfternoon, ShiftNight}

func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight:
		return true
	}
	return false
}

// Label is the human name of the shift; it also appears in export file names.
func (s Shift) Label() string {
	switch s {
	case ShiftMorning:
		return "Morning"
	case ShiftAfternoon:
		return "Afternoon"
	case ShiftNight:
		return "Night"
	}
	return "Morning"
}

func (s Shift) Hours() string {
	switch s {
	case ShiftMorning:
		return "06:00 - 14:00"
	case ShiftAfternoon:
		return "14:00 - 22:00"
	case ShiftNight:
		return "22:00 - 06:00"
	}
	return ""
}

type Area string

const (
	AreaStamping Area = "stamping"
	AreaWelding  Area = "welding"
)

var Areas = []Area{AreaStamping, AreaWelding}

func (a Area) Valid() bool {
	return a == AreaStamping || a == AreaWelding
}

func (a Area) Label() string {
	switch a {
	case AreaStamping:
		return "Stamping"
	case AreaWelding:
		return "Welding"
	}
	return string(a)
}

func (a Area) Description() string {
	switch a {
	case AreaStamping:
		return "Part stamping area"
	case AreaWelding:
		return "Welding area"
	}
	return ""
}
