package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vinceyvincey/google-calendar-sync/internal/models"
)

// EventRepository reads calendar events from Postgres.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Attendee emails are aggregated into a single comma separated column so an
// event stays one row regardless of attendee count.
const listEventsQuery = `SELECT
	e.event_id,
	e.title,
	e.start_time,
	e.end_time,
	e.all_day,
	e.location,
	e.description,
	c.summary AS calendar_name,
	string_agg(DISTINCT a.attendee_email, ', ') AS attendees,
	r.recurrence_type,
	r."interval",
	r.by_day
FROM events e
LEFT JOIN calendars c ON e.calendar_id = c.id
LEFT JOIN attendees a ON e.id = a.event_id
LEFT JOIN recurrence r ON e.id = r.event_id
GROUP BY e.id, c.summary, r.recurrence_type, r."interval", r.by_day
ORDER BY e.start_time DESC`

type eventRow struct {
	EventID        string         `db:"event_id"`
	Title          sql.NullString `db:"title"`
	StartTime      time.Time      `db:"start_time"`
	EndTime        time.Time      `db:"end_time"`
	AllDay         sql.NullBool   `db:"all_day"`
	Location       sql.NullString `db:"location"`
	Description    sql.NullString `db:"description"`
	CalendarName   sql.NullString `db:"calendar_name"`
	Attendees      sql.NullString `db:"attendees"`
	RecurrenceType sql.NullString `db:"recurrence_type"`
	Interval       sql.NullInt64  `db:"interval"`
	ByDay          sql.NullString `db:"by_day"`
}

// List returns every event joined with its calendar name, attendee list and
// recurrence rule, newest first.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, listEventsQuery); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toModel())
	}
	return events, nil
}

func (row eventRow) toModel() models.Event {
	event := models.Event{
		EventID:      row.EventID,
		Title:        row.Title.String,
		StartTime:    row.StartTime,
		EndTime:      row.EndTime,
		AllDay:       row.AllDay.Valid && row.AllDay.Bool,
		Location:     row.Location.String,
		Description:  row.Description.String,
		CalendarName: row.CalendarName.String,
	}

	if row.Attendees.Valid && row.Attendees.String != "" {
		event.Attendees = strings.Split(row.Attendees.String, ", ")
	}

	if row.RecurrenceType.Valid && row.RecurrenceType.String != "" {
		rec := &models.Recurrence{Type: row.RecurrenceType.String, Interval: 1}
		if row.Interval.Valid && row.Interval.Int64 > 0 {
			rec.Interval = int(row.Interval.Int64)
		}
		if row.ByDay.Valid && row.ByDay.String != "" {
			rec.ByDay = strings.Split(row.ByDay.String, ",")
		}
		event.Recurrence = rec
	}

	return event
}
