package notion

import (
	"strings"
	"time"

	"github.com/vinceyvincey/google-calendar-sync/internal/models"
)

// Property names in the target Notion database.
const (
	PropName        = "Name"
	PropDate        = "Date"
	PropCalendar    = "Calendar"
	PropLocation    = "Location"
	PropAllDay      = "All Day"
	PropEventID     = "Event ID"
	PropDescription = "Description"
	PropRecurrence  = "Recurrence"
	PropAttendees   = "Attendees"
)

// Text is the content node of a rich text segment.
type Text struct {
	Content string `json:"content"`
}

// RichText is one segment of a title or rich_text property. Outbound
// payloads set Text; responses may carry PlainText as well.
type RichText struct {
	Type      string `json:"type,omitempty"`
	Text      *Text  `json:"text,omitempty"`
	PlainText string `json:"plain_text,omitempty"`
}

// Date is the value of a date property.
type Date struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// SelectOption names one select or multi_select choice.
type SelectOption struct {
	Name string `json:"name"`
}

// Property is a single page property. Exactly one field is set per value;
// Checkbox is a pointer so an explicit false still serializes.
type Property struct {
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Date        *Date          `json:"date,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
}

// Properties maps property names to values.
type Properties map[string]Property

// Page is a Notion page as returned by database queries.
type Page struct {
	ID         string     `json:"id"`
	Archived   bool       `json:"archived,omitempty"`
	Properties Properties `json:"properties"`
}

// RichTextContent returns the first text segment of the named rich_text
// property, or the empty string when the property is absent or empty.
func (p Page) RichTextContent(name string) string {
	prop, ok := p.Properties[name]
	if !ok || len(prop.RichText) == 0 {
		return ""
	}
	seg := prop.RichText[0]
	if seg.Text != nil && seg.Text.Content != "" {
		return seg.Text.Content
	}
	return seg.PlainText
}

func TitleProperty(content string) Property {
	return Property{Title: []RichText{{Text: &Text{Content: content}}}}
}

func RichTextProperty(content string) Property {
	return Property{RichText: []RichText{{Text: &Text{Content: content}}}}
}

func DateProperty(start, end time.Time) Property {
	return Property{Date: &Date{
		Start: start.Format(time.RFC3339),
		End:   end.Format(time.RFC3339),
	}}
}

func SelectProperty(name string) Property {
	return Property{Select: &SelectOption{Name: name}}
}

func MultiSelectProperty(names []string) Property {
	options := make([]SelectOption, 0, len(names))
	for _, name := range names {
		options = append(options, SelectOption{Name: name})
	}
	return Property{MultiSelect: options}
}

func CheckboxProperty(value bool) Property {
	return Property{Checkbox: &value}
}

// EventProperties builds the page property payload for an event. The title,
// date, calendar, location, all-day flag and event id are always written;
// description, recurrence and attendees are written only when present so
// values edited by hand in Notion are not cleared.
func EventProperties(event models.Event, recurrence string) Properties {
	props := Properties{
		PropName:     TitleProperty(event.Title),
		PropDate:     DateProperty(event.StartTime, event.EndTime),
		PropCalendar: SelectProperty(event.CalendarName),
		PropLocation: RichTextProperty(event.Location),
		PropAllDay:   CheckboxProperty(event.AllDay),
		PropEventID:  RichTextProperty(event.EventID),
	}

	if event.Description != "" {
		props[PropDescription] = RichTextProperty(event.Description)
	}
	if recurrence != "" {
		props[PropRecurrence] = RichTextProperty(recurrence)
	}
	if attendees := trimAttendees(event.Attendees); len(attendees) > 0 {
		props[PropAttendees] = MultiSelectProperty(attendees)
	}

	return props
}

func trimAttendees(raw []string) []string {
	attendees := make([]string, 0, len(raw))
	for _, a := range raw {
		if a = strings.TrimSpace(a); a != "" {
			attendees = append(attendees, a)
		}
	}
	return attendees
}
