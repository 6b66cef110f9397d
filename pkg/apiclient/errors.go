package apiclient

import (
	"errors"
	"fmt"

	"github.com/mailworks/mailadmin/pkg/apiresult"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotApproved    = errors.New("user not approved")
	ErrAzureADRequired    = errors.New("azure ad login required")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotFound           = errors.New("not found")
)

// APIError carries the envelope failure back to the caller: the resultCode
// and the first resultMessages entry, which is what the UI surfaces.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d (http %d)", e.Code, e.Status)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case apiresult.CodeInvalidCredentials:
		return ErrInvalidCredentials
	case apiresult.CodeUserNotApproved:
		return ErrUserNotApproved
	case apiresult.CodeAzureADRequired:
		return ErrAzureADRequired
	case apiresult.CodeTokenExpired, apiresult.CodeTokenInvalid:
		return ErrSessionExpired
	case apiresult.CodeNotFound, apiresult.CodeUserNotFound,
		apiresult.CodeApplicationNotFound, apiresult.CodeEmailNotFound:
		return ErrNotFound
	}
	return nil
}
