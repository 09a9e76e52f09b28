package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

type fakeUserClient struct {
	user  response.User
	err   error
	calls int
}

func (f *fakeUserClient) Login(c context.Context, param request.LoginRequest) (response.User, error) {
	f.calls++
	return f.user, f.err
}

func TestLogin(t *testing.T) {
	editor := response.User{ID: "9", Email: "editor@tienda.com", Role: auth.RoleEditor}

	tests := []struct {
		name          string
		client        *fakeUserClient
		input         request.LoginRequest
		expected      auth.Principal
		expectedErr   error
		expectedCalls int
	}{
		{
			name:          "given accepted credentials should return principal from api",
			client:        &fakeUserClient{user: editor},
			input:         request.LoginRequest{Email: "editor@tienda.com", Password: "secret"},
			expected:      auth.Principal{UserID: "9", Email: "editor@tienda.com", Role: auth.RoleEditor},
			expectedErr:   nil,
			expectedCalls: 1,
		},
		{
			name:          "given rejected credentials should not fall back to mock users",
			client:        &fakeUserClient{err: inErrors.ErrRejected},
			input:         request.LoginRequest{Email: "admin@tienda.com", Password: "admin123"},
			expected:      auth.Principal{},
			expectedErr:   inErrors.ErrInvalidCredentials,
			expectedCalls: 1,
		},
		{
			name:          "given unreachable api should fall back to mock users",
			client:        &fakeUserClient{err: errors.New("dial tcp: connection refused")},
			input:         request.LoginRequest{Email: "admin@tienda.com", Password: "admin123"},
			expected:      auth.Principal{UserID: "1", Email: "admin@tienda.com", Role: auth.RoleAdmin},
			expectedErr:   nil,
			expectedCalls: 1,
		},
		{
			name:          "given unreachable api and wrong password should fail",
			client:        &fakeUserClient{err: errors.New("dial tcp: connection refused")},
			input:         request.LoginRequest{Email: "admin@tienda.com", Password: "admin"},
			expected:      auth.Principal{},
			expectedErr:   inErrors.ErrInvalidCredentials,
			expectedCalls: 1,
		},
		{
			name:          "given invalid email should not call api",
			client:        &fakeUserClient{user: editor},
			input:         request.LoginRequest{Email: "admin", Password: "admin123"},
			expected:      auth.Principal{},
			expectedErr:   nil,
			expectedCalls: 0,
		},
		{
			name:          "given empty password should not call api",
			client:        &fakeUserClient{user: editor},
			input:         request.LoginRequest{Email: "admin@tienda.com"},
			expected:      auth.Principal{},
			expectedErr:   nil,
			expectedCalls: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc := NewUserService(test.client)

			_, principal, err := svc.Login(context.Background(), test.input)

			assert.Equal(t, test.expectedCalls, test.client.calls)
			assert.Equal(t, test.expected, principal)
			if test.expectedCalls == 0 {
				assert.Error(t, err)
				return
			}
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
