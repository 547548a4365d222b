package studio

import "time"

type (
	// Alerts is the ring of user-facing diagnostics: failed loads, rejected
	// commands, transport warnings. None of these are fatal; the UI shows
	// them briefly and the action degrades to doing nothing.
	Alerts struct {
		list []Alert
	}

	Alert struct {
		Name     string // alerts with the same non-empty name replace each other
		Message  string
		Priority AlertPriority
		Duration time.Duration
	}

	AlertPriority int
)

const (
	Notify AlertPriority = iota
	Warning
	Error
)

const defaultAlertDuration = 3 * time.Second

// maxAlerts caps the ring; the oldest alert is dropped on overflow.
const maxAlerts = 16

func NewAlerts() *Alerts {
	return &Alerts{}
}

func (a *Alerts) Add(message string, priority AlertPriority) {
	a.AddNamed("", message, priority)
}

// AddNamed adds an alert that replaces any previous alert with the same name.
// Named alerts keep repeating failures (e.g. every rejected reentrant
// command) from flooding the ring.
func (a *Alerts) AddNamed(name, message string, priority AlertPriority) {
	alert := Alert{Name: name, Message: message, Priority: priority, Duration: defaultAlertDuration}
	if name != "" {
		for i := range a.list {
			if a.list[i].Name == name {
				a.list[i] = alert
				return
			}
		}
	}
	if len(a.list) >= maxAlerts {
		copy(a.list, a.list[1:])
		a.list = a.list[:len(a.list)-1]
	}
	a.list = append(a.list, alert)
}

// Pop removes and returns the oldest alert.
func (a *Alerts) Pop() (Alert, bool) {
	if len(a.list) == 0 {
		return Alert{}, false
	}
	ret := a.list[0]
	a.list = a.list[1:]
	return ret, true
}

func (a *Alerts) Count() int { return len(a.list) }
