// Package calendar places recommended schedules on a Google Calendar.
package calendar

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/model"
	"github.com/sells-group/classify/pkg/gcal"
)

// Service creates calendars and events through a gcal.Client.
type Service struct {
	client   gcal.Client
	timeZone string
	loc      *time.Location
}

// NewService creates a Service whose zone-less datetimes are interpreted in
// timeZone.
func NewService(client gcal.Client, timeZone string) (*Service, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, eris.Wrapf(err, "calendar: load time zone %q", timeZone)
	}
	return &Service{client: client, timeZone: timeZone, loc: loc}, nil
}

// GetOrCreate returns the ID of the calendar whose summary equals name,
// creating it when none exists.
func (s *Service) GetOrCreate(ctx context.Context, name string) (string, error) {
	cals, err := s.client.ListCalendars(ctx)
	if err != nil {
		return "", eris.Wrap(err, "calendar: list calendars")
	}
	for _, c := range cals {
		if c.Summary == name {
			zap.L().Info("calendar: found existing calendar", zap.String("name", name), zap.String("id", c.ID))
			return c.ID, nil
		}
	}

	created, err := s.client.InsertCalendar(ctx, gcal.Calendar{Summary: name, TimeZone: s.timeZone})
	if err != nil {
		return "", eris.Wrap(err, "calendar: create calendar")
	}
	zap.L().Info("calendar: created calendar", zap.String("name", name), zap.String("id", created.ID))
	return created.ID, nil
}

// AddEvents inserts each entry, then reads it back so the returned schedule
// reflects what the calendar stored. On failure the entries created so far
// are returned with the error.
func (s *Service) AddEvents(ctx context.Context, calendarID string, entries []model.CalendarEntry) ([]model.CalendarEntry, error) {
	schedule := make([]model.CalendarEntry, 0, len(entries))
	for i, e := range entries {
		event, err := s.toEvent(e)
		if err != nil {
			return schedule, eris.Wrapf(err, "calendar: entry %d", i)
		}

		created, err := s.client.InsertEvent(ctx, calendarID, event)
		if err != nil {
			return schedule, eris.Wrapf(err, "calendar: insert %q", e.Summary)
		}
		stored, err := s.client.GetEvent(ctx, calendarID, created.ID)
		if err != nil {
			return schedule, eris.Wrapf(err, "calendar: read back %q", e.Summary)
		}

		zap.L().Debug("calendar: event added", zap.String("summary", stored.Summary), zap.String("id", stored.ID))
		schedule = append(schedule, model.CalendarEntry{
			Summary:     stored.Summary,
			Location:    stored.Location,
			Description: stored.Description,
			Start:       stored.Start.DateTime,
			End:         stored.End.DateTime,
			Recurrence:  stored.Recurrence,
		})
	}
	return schedule, nil
}

func (s *Service) toEvent(e model.CalendarEntry) (gcal.Event, error) {
	start, err := parseEntryTime(e.Start, s.loc)
	if err != nil {
		return gcal.Event{}, err
	}
	end, err := parseEntryTime(e.End, s.loc)
	if err != nil {
		return gcal.Event{}, err
	}
	if !end.After(start) {
		return gcal.Event{}, eris.Errorf("calendar: %q ends before it starts", e.Summary)
	}
	return gcal.Event{
		Summary:     e.Summary,
		Location:    e.Location,
		Description: e.Description,
		Start:       gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: s.timeZone},
		End:         gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: s.timeZone},
		Recurrence:  e.Recurrence,
	}, nil
}
