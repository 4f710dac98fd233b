// Package mocks provides test doubles for the ratemyprof client.
package mocks

import (
	"context"

	ratemyprof "github.com/sells-group/classify/pkg/ratemyprof"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SearchTeachers provides a mock function with given fields: ctx, text
func (_m *MockClient) SearchTeachers(ctx context.Context, text string) ([]ratemyprof.Teacher, error) {
	ret := _m.Called(ctx, text)

	if len(ret) == 0 {
		panic("no return value specified for SearchTeachers")
	}

	var r0 []ratemyprof.Teacher
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]ratemyprof.Teacher, error)); ok {
		return rf(ctx, text)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []ratemyprof.Teacher); ok {
		r0 = rf(ctx, text)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]ratemyprof.Teacher)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, text)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Ratings provides a mock function with given fields: ctx, teacherID
func (_m *MockClient) Ratings(ctx context.Context, teacherID string) ([]ratemyprof.Rating, error) {
	ret := _m.Called(ctx, teacherID)

	if len(ret) == 0 {
		panic("no return value specified for Ratings")
	}

	var r0 []ratemyprof.Rating
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]ratemyprof.Rating, error)); ok {
		return rf(ctx, teacherID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []ratemyprof.Rating); ok {
		r0 = rf(ctx, teacherID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]ratemyprof.Rating)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, teacherID)
	} else {
		r1 = ret.Error(1)
	}

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
