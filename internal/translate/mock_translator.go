package translate

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, source, target, text string) (string, error) {
	args := m.Called(ctx, source, target, text)
	return args.String(0), args.Error(1)
}
