// Package mocks provides test doubles for the gcal client.
package mocks

import (
	"context"

	gcal "github.com/sells-group/classify/pkg/gcal"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ListCalendars provides a mock function with given fields: ctx
func (_m *MockClient) ListCalendars(ctx context.Context) ([]gcal.CalendarListEntry, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for ListCalendars")
	}

	var r0 []gcal.CalendarListEntry
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]gcal.CalendarListEntry, error)); ok {
		return rf(ctx)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]gcal.CalendarListEntry)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// InsertCalendar provides a mock function with given fields: ctx, cal
func (_m *MockClient) InsertCalendar(ctx context.Context, cal gcal.Calendar) (*gcal.Calendar, error) {
	ret := _m.Called(ctx, cal)

	if len(ret) == 0 {
		panic("no return value specified for InsertCalendar")
	}

	var r0 *gcal.Calendar
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, gcal.Calendar) (*gcal.Calendar, error)); ok {
		return rf(ctx, cal)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*gcal.Calendar)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// InsertEvent provides a mock function with given fields: ctx, calendarID, event
func (_m *MockClient) InsertEvent(ctx context.Context, calendarID string, event gcal.Event) (*gcal.Event, error) {
	ret := _m.Called(ctx, calendarID, event)

	if len(ret) == 0 {
		panic("no return value specified for InsertEvent")
	}

	var r0 *gcal.Event
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, gcal.Event) (*gcal.Event, error)); ok {
		return rf(ctx, calendarID, event)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*gcal.Event)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// GetEvent provides a mock function with given fields: ctx, calendarID, eventID
func (_m *MockClient) GetEvent(ctx context.Context, calendarID string, eventID string) (*gcal.Event, error) {
	ret := _m.Called(ctx, calendarID, eventID)

	if len(ret) == 0 {
		panic("no return value specified for GetEvent")
	}

	var r0 *gcal.Event
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (*gcal.Event, error)); ok {
		return rf(ctx, calendarID, eventID)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*gcal.Event)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
