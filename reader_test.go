package main

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func ExpectEqual(t *testing.T, expect, actual string) {
	t.Helper()
	if expect != actual {
		t.Errorf("Got %q, want %q", actual, expect)
	}
}

func readRequestSync(r io.Reader) (*Request, error) {
	reqReader := NewRequestReader(r)
	reqReader.Start()
	select {
	case req := <-reqReader.RequestReceived():
		return req, nil
	case err := <-reqReader.ErrorOccurred():
		return nil, err
	}
}

func TestRequestReader(t *testing.T) {
	r := strings.NewReader("GET / HTTP/1.1\r\nHost: www.google.com\r\n\r\n")
	req, err := readRequestSync(r)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	ExpectEqual(t, "GET", req.Method)
	ExpectEqual(t, "/", req.URI)
	ExpectEqual(t, "HTTP/1.1", req.Version)
	ExpectEqual(t, "www.google.com", req.Headers["host"])
	ExpectEqual(t, "www.google.com", req.Headers.Get("HOST"))
	ExpectEqual(t, "Host: www.google.com\r\n\r\n", strings.Join(req.RawHeaders, ""))
}

func TestRequestReaderPostBody(t *testing.T) {
	r := strings.NewReader("POST /form HTTP/1.1\r\ncontent-length: 7\r\n\r\na=1&b=2trailing")
	req, err := readRequestSync(r)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	ExpectEqual(t, "a=1&b=2", string(req.Body))
	if req.BodyShort {
		t.Error("body reported short")
	}
}

func TestRequestReaderShortBody(t *testing.T) {
	r := strings.NewReader("POST /form HTTP/1.1\r\nContent-Length: 20\r\n\r\na=1")
	req, err := readRequestSync(r)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	ExpectEqual(t, "a=1", string(req.Body))
	if !req.BodyShort {
		t.Error("short body not reported")
	}
}

func TestRequestReaderNoContentLength(t *testing.T) {
	r := strings.NewReader("POST /form HTTP/1.1\r\nHost: x\r\n\r\na=1")
	req, err := readRequestSync(r)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(req.Body) != 0 || req.BodyShort {
		t.Errorf("got body %q short=%v, want none", req.Body, req.BodyShort)
	}
}

func TestRequestReaderGetIgnoresBody(t *testing.T) {
	r := strings.NewReader("GET /x HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc")
	req, err := readRequestSync(r)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if req.Body != nil {
		t.Errorf("GET body = %q, want nil", req.Body)
	}
}

func TestRequestReaderErrors(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"", ErrEmptyRequest},
		{"\r\n", ErrMalformedRequest},
		{"GET /\r\n\r\n", ErrMalformedRequest},
		{"GET / HTTP/1.1 extra\r\n\r\n", ErrMalformedRequest},
		{"GET  / HTTP/1.1\r\n\r\n", ErrMalformedRequest},
		{"POST / HTTP/1.1\r\nContent-Length: abc\r\n\r\n", ErrMalformedRequest},
		{"POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n", ErrMalformedRequest},
		{"GET /" + strings.Repeat("a", maxLineBytes) + " HTTP/1.1\r\n\r\n", ErrMalformedRequest},
		{"GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("b", maxLineBytes) + "\r\n\r\n", ErrMalformedRequest},
	}
	for _, c := range cases {
		_, err := readRequestSync(strings.NewReader(c.in))
		if !errors.Is(err, c.want) {
			t.Errorf("%q: got %v, want %v", c.in, err, c.want)
		}
	}
}

func TestRequestReaderTrailingSpace(t *testing.T) {
	req, err := readRequestSync(strings.NewReader("GET /a.html HTTP/1.1  \r\n\r\n"))
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	ExpectEqual(t, "GET", req.Method)
	ExpectEqual(t, "/a.html", req.URI)
	ExpectEqual(t, "HTTP/1.1", req.Version)
}

func TestRequestReaderLongHeaderWithinLimit(t *testing.T) {
	value := strings.Repeat("v", maxLineBytes-len("X-Big: \r\n"))
	req, err := readRequestSync(strings.NewReader("GET / HTTP/1.1\r\nX-Big: " + value + "\r\n\r\n"))
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	ExpectEqual(t, value, req.Headers.Get("x-big"))
}

func TestRequestReaderLenientHeaders(t *testing.T) {
	r := strings.NewReader("TRACE / HTTP/1.1\nnot a header\nX-A:  b \n\n")
	req, err := readRequestSync(r)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	ExpectEqual(t, "b", req.Headers.Get("x-a"))
	ExpectEqual(t, "not a header\nX-A:  b \n\n", strings.Join(req.RawHeaders, ""))
}

func TestRequestReaderUnterminated(t *testing.T) {
	req, err := readRequestSync(strings.NewReader("GET /a HTTP/1.0"))
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	ExpectEqual(t, "/a", req.URI)
	if len(req.RawHeaders) != 0 {
		t.Errorf("raw headers = %q, want none", req.RawHeaders)
	}
}
