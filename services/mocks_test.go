package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

func runInline(f func()) { f() }

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendWelcomeEmail(email, name string) error {
	args := m.Called(email, name)
	return args.Error(0)
}

func (m *mockMailer) SendLoginNotice(email, name, clientIP string, at time.Time) error {
	args := m.Called(email, name, clientIP, at)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

// memoryStorage keeps uploaded objects in a map and can fail the nth upload.
type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
	failAt  int
	uploads int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (s *memoryStorage) Upload(_ context.Context, prefix, fileName, _ string, data []byte) (StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads++
	if s.failAt > 0 && s.uploads == s.failAt {
		return StoredObject{}, errors.New("storage unavailable")
	}
	key := ObjectKey(prefix, fileName)
	s.objects[key] = data
	return StoredObject{Key: key, URL: "https://cdn.motomar.test/" + key}, nil
}

func (s *memoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

func (s *memoryStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
