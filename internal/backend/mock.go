package backend

import (
	"context"
	"io"

	"github.com/npezzotti/go-chatclient/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) CreateRoom(ctx context.Context, roomID string) (Room, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(Room), args.Error(1)
}

func (m *MockDirectory) JoinRoom(ctx context.Context, roomID string) (Room, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(Room), args.Error(1)
}

func (m *MockDirectory) Messages(ctx context.Context, roomID string) ([]types.Message, error) {
	args := m.Called(ctx, roomID)
	if msgs, ok := args.Get(0).([]types.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, roomID, sender, filename string, r io.Reader) (types.UploadDescriptor, error) {
	args := m.Called(ctx, roomID, sender, filename, r)
	return args.Get(0).(types.UploadDescriptor), args.Error(1)
}
