package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/client"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/view"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/internal/service"
	"github.com/Alturino/storefront/user/pkg/request"
)

// Login authenticates against the collaborator configured in cfg and returns the
// resulting principal.
func Login(c context.Context, cfg *config.Config, param request.LoginRequest) (auth.Principal, error) {
	c, span := otel.Tracer.Start(c, "cmd Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "cmd Login").
		Object(log.KeyRequest, param).
		Logger()

	svc := service.NewUserService(client.New(cfg.Api.BaseURL, cfg.Api.Timeout))
	_, principal, err := svc.Login(logger.WithContext(c), param)
	if err != nil {
		err = fmt.Errorf("failed logging in with error=%w", err)
		inOtel.RecordError(err, span)
		return auth.Principal{}, err
	}
	return principal, nil
}

func RunLogin(c context.Context, cfg *config.Config, param request.LoginRequest, w io.Writer) error {
	principal, err := Login(c, cfg, param)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, view.Principal(principal))
	return err
}
