// Package apiresult defines the response envelope shared by every endpoint:
// resultCode 1 means success, other bands carry typed business failures.
package apiresult

import "encoding/json"

const (
	CodeOK = 1

	// 100s: auth
	CodeInvalidCredentials = 101
	CodeUserNotApproved    = 102
	CodeAzureADRequired    = 103
	CodeTokenExpired       = 104
	CodeTokenInvalid       = 105

	// 200s: user management
	CodeUserNotFound = 201
	CodeUnknownRole  = 202

	// 300s: applications
	CodeApplicationNotFound  = 301
	CodeDuplicateApplication = 302

	// 400s: emails
	CodeEmailNotFound = 401

	// 500s: generic data / system
	CodeSystem     = 500
	CodeValidation = 501
	CodeNotFound   = 502
)

// Response is the server-side envelope. ResultData is always a JSON array.
type Response struct {
	ResultCode     int      `json:"resultCode"`
	ResultData     any      `json:"resultData"`
	ResultMessages []string `json:"resultMessages"`
	TotalCount     int64    `json:"totalCount,omitempty"`
}

func OK(data any) Response {
	if data == nil {
		data = []any{}
	}
	return Response{ResultCode: CodeOK, ResultData: data, ResultMessages: []string{}}
}

func OKList(data any, total int64) Response {
	r := OK(data)
	r.TotalCount = total
	return r
}

func Fail(code int, messages ...string) Response {
	return Response{ResultCode: code, ResultData: []any{}, ResultMessages: messages}
}

// Envelope is the client-side view: resultData stays raw until the caller
// decodes it into the expected slice type.
type Envelope struct {
	ResultCode     int             `json:"resultCode"`
	ResultData     json.RawMessage `json:"resultData"`
	ResultMessages []string        `json:"resultMessages"`
	TotalCount     int64           `json:"totalCount,omitempty"`
}

func (e *Envelope) OK() bool { return e.ResultCode == CodeOK }

// FirstMessage returns the first result message, the one surfaced to users.
func (e *Envelope) FirstMessage() string {
	if len(e.ResultMessages) > 0 {
		return e.ResultMessages[0]
	}
	return ""
}

func (e *Envelope) Decode(into any) error {
	if len(e.ResultData) == 0 {
		return nil
	}
	return json.Unmarshal(e.ResultData, into)
}
