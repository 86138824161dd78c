package main

import (
	"errors"
	"strings"
)

const (
	MethodGet   = "GET"
	MethodPost  = "POST"
	MethodHead  = "HEAD"
	MethodTrace = "TRACE"
)

const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusInternalServerError = 500
	StatusNotImplemented      = 501
)

var statusText = map[int]string{
	StatusOK:                  "OK",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusInternalServerError: "Internal Server Error",
	StatusNotImplemented:      "Not Implemented",
}

var (
	ErrEmptyRequest       = errors.New("empty request")
	ErrMalformedRequest   = errors.New("malformed request")
	ErrMethodNotSupported = errors.New("method not supported")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrResourceRead       = errors.New("resource read failure")
	ErrResponseWrite      = errors.New("response write failure")
)

// Not map[string][]string, unlike http.Header. Keys are stored lower-cased.
type HTTPHeader map[string]string

func (h HTTPHeader) Get(name string) string {
	return h[strings.ToLower(name)]
}

type Request struct {
	Method  string
	URI     string
	Version string
	Headers HTTPHeader
	// RawHeaders holds every line after the request line exactly as received,
	// line terminators included, up to and including the blank line.
	RawHeaders []string
	Body       []byte
	// BodyShort is set when the peer sent fewer bytes than Content-Length.
	BodyShort bool
}

// Framing selects how a response body is delimited on the wire.
type Framing int

const (
	FramingFixed Framing = iota
	FramingChunked
)

func (f Framing) String() string {
	if f == FramingChunked {
		return "chunked"
	}
	return "fixed"
}

type Response struct {
	Version     string
	Status      int
	Phrase      string
	ContentType string
	Body        []byte
	Framing     Framing
	// HeadOnly responses carry ContentLength but never a body.
	HeadOnly      bool
	ContentLength int64
}

func NewResponse(status int, contentType string, body []byte) *Response {
	return &Response{
		Version:       "HTTP/1.1",
		Status:        status,
		Phrase:        statusText[status],
		ContentType:   contentType,
		Body:          body,
		ContentLength: int64(len(body)),
	}
}

func textResponse(status int, msg string) *Response {
	return NewResponse(status, "text/plain", []byte(msg))
}

func ResponseEmptyRequest() *Response {
	return textResponse(StatusBadRequest, "Empty request.")
}

func ResponseBadRequest() *Response {
	return textResponse(StatusBadRequest, "Malformed request.")
}

func ResponseNotFound() *Response {
	return textResponse(StatusNotFound, "Resource not found.")
}

func ResponseInternalError() *Response {
	return textResponse(StatusInternalServerError, "Internal server error.")
}

func ResponseNotImplemented() *Response {
	return textResponse(StatusNotImplemented, "Method not implemented.")
}

// ResponseForError maps a parse or routing error to the reply sent to the client.
func ResponseForError(err error) *Response {
	switch {
	case errors.Is(err, ErrEmptyRequest):
		return ResponseEmptyRequest()
	case errors.Is(err, ErrMalformedRequest):
		return ResponseBadRequest()
	case errors.Is(err, ErrMethodNotSupported):
		return ResponseNotImplemented()
	case errors.Is(err, ErrResourceNotFound):
		return ResponseNotFound()
	default:
		return ResponseInternalError()
	}
}
