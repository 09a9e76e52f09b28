package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestRunApiServer(t *testing.T) {
	t.Run("unknown store fails before serving", func(t *testing.T) {
		cfg := &config.Config{Api: config.Api{Store: "mongo"}}
		err := RunApiServer(context.Background(), cfg)
		assert.ErrorIs(t, err, inErrors.ErrUnknownStore)
	})

	t.Run("cancelled context shuts the server down", func(t *testing.T) {
		cfg := &config.Config{
			Application: config.Application{Host: "127.0.0.1", Port: 0},
			Api:         config.Api{Store: "memory"},
		}
		c, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- RunApiServer(c, cfg) }()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(30 * time.Second):
			t.Fatal("server did not shut down")
		}
	})
}
