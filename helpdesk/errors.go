package helpdesk

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
)

// Kind classifies an integration failure.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindRateLimit     Kind = "rate_limit"
	KindProvider      Kind = "provider"
	KindNetwork       Kind = "network"
	KindAuth          Kind = "auth"
)

// Error is the typed failure surfaced by all network-facing
// operations. Validation failures never reach the network layer.
type Error struct {
	Kind        Kind
	Code        string // provider-supplied error code, when present
	Description string
	RetryAfter  int // seconds, populated for KindRateLimit
	Err         error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("helpdesk: %s (%s): %s", e.Kind, e.Code, e.Description)
	case e.Kind == KindRateLimit:
		return fmt.Sprintf("helpdesk: %s: %s (retry after %ds)", e.Kind, e.Description, e.RetryAfter)
	default:
		return fmt.Sprintf("helpdesk: %s: %s", e.Kind, e.Description)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// AsError unwraps err into a helpdesk Error if it carries one.
func AsError(err error) (*Error, bool) {
	var he *Error
	ok := errors.As(err, &he)
	return he, ok
}

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Description: fmt.Sprintf(format, args...)}
}

func networkError(op string, err error) error {
	return &Error{Kind: KindNetwork, Description: op + " failed", Err: err}
}

// rateLimitError carries the provider's retry-after hint verbatim. A
// non-numeric header value yields RetryAfter 0 with the raw value
// kept in the description for the caller's benefit.
func rateLimitError(retryAfter string, err error) error {
	secs, convErr := strconv.Atoi(retryAfter)
	desc := "rate limited by provider"
	if convErr != nil && retryAfter != "" {
		secs = 0
		desc = "rate limited by provider (retry-after: " + retryAfter + ")"
	}
	return &Error{Kind: KindRateLimit, Description: desc, RetryAfter: secs, Err: err}
}

// classifyGrantError maps a failed token-endpoint round trip into the
// stable taxonomy. oauth2 surfaces provider responses as
// *oauth2.RetrieveError; anything else is a transport failure.
func classifyGrantError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil {
			switch re.Response.StatusCode {
			case http.StatusNotFound:
				return &Error{Kind: KindNotFound, Description: "subdomain not found", Err: err}
			case http.StatusTooManyRequests:
				return rateLimitError(re.Response.Header.Get("Retry-After"), err)
			}
		}
		if re.ErrorCode != "" {
			return &Error{
				Kind:        KindProvider,
				Code:        re.ErrorCode,
				Description: DescribeErrorCode(re.ErrorCode, re.ErrorDescription),
				Err:         err,
			}
		}
	}
	return networkError(op, err)
}

// Stable messages for provider error codes returned on the
// authorization redirect or in token-endpoint bodies.
var oauthErrorMessages = map[string]string{
	"access_denied":             "the user or the provider denied the authorization request",
	"invalid_request":           "the authorization request was missing a parameter or otherwise malformed",
	"unsupported_response_type": "the provider does not support the requested response type",
	"invalid_scope":             "one or more requested scopes are invalid or unknown",
	"server_error":              "the provider encountered an internal error",
	"temporarily_unavailable":   "the provider is temporarily unable to handle the request",
}

// DescribeErrorCode maps a provider error code to a stable
// human-readable message, appending the provider's description when
// present. Unknown codes fall back to a generic message; this
// function never fails.
func DescribeErrorCode(code, description string) string {
	msg, ok := oauthErrorMessages[code]
	if !ok {
		msg = "unknown OAuth error"
	}
	if description != "" {
		return msg + ": " + description
	}
	return msg
}
