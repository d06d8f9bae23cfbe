package measurements

import (
	"testing"

	"measurement-extractor/core/config"
	"measurement-extractor/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoader(t *testing.T) {
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, nil, config.ExtractConfig{}, testStorage, zap.NewNop())
	feature := NewFeature(svc)

	assert.Equal(t, "measurements", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	err := feature.Load(app)
	assert.NoError(t, err)
}
