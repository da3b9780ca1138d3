package aptos

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sidkris/aptos-transfer/api"
)

// HttpError is a non-2xx answer from the node or the faucet
//
//	var httpErr *aptos.HttpError
//	if errors.As(err, &httpErr) && httpErr.StatusCode == 404 { ... }
//
// When the body is a node error document, ErrorCode, VmErrorCode and Message are filled in.
type HttpError struct {
	Status      string // HTTP status e.g. "200 OK"
	StatusCode  int    // HTTP status code e.g. 200
	Header      http.Header
	Method      string
	RequestUrl  string
	ErrorCode   string
	VmErrorCode *uint64
	Message     string
	Body        []byte
}

// NewHttpError reads the body of a failed response; the caller still closes it
func NewHttpError(response *http.Response) *HttpError {
	body, _ := io.ReadAll(response.Body)
	out := &HttpError{
		Status:     response.Status,
		StatusCode: response.StatusCode,
		Header:     response.Header,
		Body:       body,
	}
	if response.Request != nil {
		out.Method = response.Request.Method
		out.RequestUrl = response.Request.URL.String()
	}
	apiErr := api.Error{}
	if json.Unmarshal(body, &apiErr) == nil {
		out.ErrorCode = apiErr.ErrorCode
		out.VmErrorCode = apiErr.VmErrorCode
		out.Message = apiErr.Message
	}
	return out
}

func (he *HttpError) Error() string {
	if he.ErrorCode != "" {
		return fmt.Sprintf("HttpError %s %#v -> %#v %s: %s", he.Method, he.RequestUrl, he.Status, he.ErrorCode, he.Message)
	}
	return fmt.Sprintf("HttpError %s %#v -> %#v %#v", he.Method, he.RequestUrl, he.Status, string(he.Body))
}

// Unwrap maps the node's error document to the matching lifecycle sentinel, if any
func (he *HttpError) Unwrap() error {
	return classifyNodeError(he)
}

// vm status codes that the lifecycle maps to sentinels
const (
	vmStatusSequenceNumberTooOld = "SEQUENCE_NUMBER_TOO_OLD"
	vmStatusInvalidSignature     = "INVALID_SIGNATURE"
)

func classifyNodeError(he *HttpError) error {
	switch he.ErrorCode {
	case api.ErrorCodeAccountNotFound:
		return ErrAccountNotFound
	case api.ErrorCodeTransactionNotFound:
		return ErrTransactionNotFound
	}
	switch {
	case strings.Contains(he.Message, vmStatusSequenceNumberTooOld):
		return ErrStaleSequenceNumber
	case strings.Contains(he.Message, vmStatusInvalidSignature):
		return ErrSignatureMismatch
	}
	return nil
}

// IsNotFound reports a 404 from the node, whatever the resource
func IsNotFound(err error) bool {
	var httpErr *HttpError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
