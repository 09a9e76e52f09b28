// Package client talks to the storefront REST collaborator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the collaborator rooted at baseURL. A zero timeout means
// requests wait as long as the context allows.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

func (cl *Client) BaseURL() string {
	return cl.baseURL
}

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// do sends body as json and decodes a 2xx reply into out. Replies outside 2xx come back
// as *ResponseError. The status code is returned whenever a reply was received.
func (cl *Client) do(
	c context.Context,
	method string,
	path string,
	body any,
	out any,
) (int, error) {
	url := cl.baseURL + path
	c, span := otel.Tracer.Start(
		c,
		"Client do",
		trace.WithAttributes(
			attribute.String(log.KeyRequestMethod, method),
			attribute.String(log.KeyURL, url),
		),
	)
	defer span.End()

	requestID := log.RequestIDFromContext(c)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client do").
		Str(log.KeyRequestMethod, method).
		Str(log.KeyURL, url).
		Str(log.KeyRequestID, requestID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "encoding request body").Logger()
	var reader io.Reader
	if body != nil {
		logger.Trace().Msg("encoding request body")
		b, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed encoding request body with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return 0, err
		}
		reader = bytes.NewReader(b)
		logger.Trace().Msg("encoded request body")
	}

	logger = logger.With().Str(log.KeyProcess, "creating request").Logger()
	req, err := http.NewRequestWithContext(c, method, url, reader)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	req.Header.Set(inHttp.KeyHeaderRequestID, requestID)
	req.Header.Set("Accept", inHttp.ValueHeaderJson)
	if body != nil {
		req.Header.Set(inHttp.KeyHeaderContentType, inHttp.ValueHeaderJson)
	}

	logger = logger.With().Str(log.KeyProcess, "sending request").Logger()
	logger.Debug().Msg("sending request")
	resp, err := cl.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending %s %s with error=%w", method, path, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	defer resp.Body.Close()
	logger = logger.With().Int(log.KeyStatusCode, resp.StatusCode).Logger()
	span.SetAttributes(attribute.Int(log.KeyStatusCode, resp.StatusCode))
	logger.Debug().Msg("sent request")

	logger = logger.With().Str(log.KeyProcess, "reading response body").Logger()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed reading response body with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger = logger.With().Str(log.KeyProcess, "decoding failed response").Logger()
		failed := envelope{}
		respErr := &ResponseError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		if json.Unmarshal(raw, &failed) == nil && failed.Success != nil && !*failed.Success {
			respErr.Message = failed.Message
			respErr.Rejected = true
		}
		err = respErr
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return resp.StatusCode, err
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}

	logger = logger.With().Str(log.KeyProcess, "decoding response body").Logger()
	logger.Trace().Msg("decoding response body")
	err = json.Unmarshal(raw, out)
	if err != nil {
		err = fmt.Errorf("failed decoding response body with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return resp.StatusCode, err
	}
	logger.Trace().Msg("decoded response body")

	return resp.StatusCode, nil
}

// ResponseError is a reply from the collaborator that did not succeed. It matches
// ErrUnexpectedStatus for replies outside 2xx and ErrRejected when the collaborator
// answered with success=false.
type ResponseError struct {
	StatusCode int
	Message    string
	Rejected   bool
}

func (e *ResponseError) Error() string {
	if e.Rejected {
		return fmt.Sprintf("request rejected status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("unexpected status=%d body=%s", e.StatusCode, e.Message)
}

func (e *ResponseError) Unwrap() []error {
	errs := []error{}
	if e.Rejected {
		errs = append(errs, inErrors.ErrRejected)
	}
	if e.StatusCode < 200 || e.StatusCode > 299 {
		errs = append(errs, inErrors.ErrUnexpectedStatus)
	}
	return errs
}

// rejected turns a 2xx reply that still reports success=false into a ResponseError.
func rejected(statusCode int, success bool, message string) error {
	if success {
		return nil
	}
	return &ResponseError{StatusCode: statusCode, Message: message, Rejected: true}
}

// RejectionMessage returns the message the collaborator attached to a failed reply, or ""
// when err does not come from one.
func RejectionMessage(err error) string {
	respErr := &ResponseError{}
	if errors.As(err, &respErr) {
		return respErr.Message
	}
	return ""
}
