package models

import "time"

// Event is one calendar event joined with its calendar name, attendee list
// and recurrence rule. EventID is the upstream calendar identifier and the
// join key against Notion pages.
type Event struct {
	EventID      string      `json:"event_id"`
	Title        string      `json:"title"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	AllDay       bool        `json:"all_day"`
	Location     string      `json:"location"`
	Description  string      `json:"description"`
	CalendarName string      `json:"calendar_name"`
	Attendees    []string    `json:"attendees,omitempty"`
	Recurrence   *Recurrence `json:"recurrence,omitempty"`
}

// Recurrence describes how an event repeats. Type is the repeat unit
// (day, week, month, year) and ByDay holds two-letter day codes such as
// MO or FR for weekly rules.
type Recurrence struct {
	Type     string   `json:"type"`
	Interval int      `json:"interval"`
	ByDay    []string `json:"by_day,omitempty"`
}
