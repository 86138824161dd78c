package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Request bodies above this size are refused rather than buffered.
const maxBodyBytes = 1 << 20

// Longest request or header line accepted, terminator included.
const maxLineBytes = 8 << 10

type baseReader struct {
	r     *bufio.Reader
	errCh chan error
	eof   bool
}

func (r *baseReader) ErrorOccurred() <-chan error {
	return r.errCh
}

// readRawLine returns the next line with its terminator still attached.
// A final line missing its newline is returned as is; io.EOF is only
// reported when nothing at all was left to read. Lines over maxLineBytes
// are malformed.
func (r *baseReader) readRawLine() (string, error) {
	if r.eof {
		return "", io.EOF
	}
	var line []byte
	for {
		frag, err := r.r.ReadSlice('\n')
		if len(line)+len(frag) > maxLineBytes {
			return "", fmt.Errorf("%w: line exceeds %d bytes", ErrMalformedRequest, maxLineBytes)
		}
		line = append(line, frag...)
		switch err {
		case nil:
			return string(line), nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			r.eof = true
			if len(line) > 0 {
				return string(line), nil
			}
			return "", io.EOF
		default:
			return "", err
		}
	}
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// readHeaders consumes header lines up to the blank line. Lines that do not
// look like "name: value" are kept in the raw list but skipped in the map.
func (r *baseReader) readHeaders() (HTTPHeader, []string, error) {
	headers := make(HTTPHeader)
	var raw []string
	for {
		line, err := r.readRawLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read headers: %w", err)
		}
		raw = append(raw, line)
		l := trimEOL(line)
		if len(l) == 0 {
			break
		}
		fs := strings.SplitN(l, ":", 2)
		if len(fs) != 2 {
			continue
		}
		hdr := strings.ToLower(strings.TrimSpace(fs[0]))
		headers[hdr] = strings.TrimSpace(fs[1])
	}
	return headers, raw, nil
}

func contentLength(h HTTPHeader) (int, error) {
	cls, ok := h["content-length"]
	if !ok {
		return 0, nil
	}
	cl, err := strconv.Atoi(cls)
	if err != nil || cl < 0 {
		return 0, fmt.Errorf("%w: invalid Content-Length %q", ErrMalformedRequest, cls)
	}
	if cl > maxBodyBytes {
		return 0, fmt.Errorf("%w: Content-Length %d too large", ErrMalformedRequest, cl)
	}
	return cl, nil
}

// RequestReader reads one HTTP/1.1 request: request line, headers and,
// for POST, a Content-Length delimited body.
type RequestReader struct {
	baseReader
	req   *Request
	reqCh chan *Request
}

func NewRequestReader(r io.Reader) *RequestReader {
	var br *bufio.Reader
	if casted, ok := r.(*bufio.Reader); ok {
		br = casted
	} else {
		br = bufio.NewReader(r)
	}
	rr := &RequestReader{
		baseReader{r: br, errCh: make(chan error)},
		&Request{},
		make(chan *Request),
	}
	return rr
}

func (r *RequestReader) Start() {
	go func() {
		if err := r.readRequestLine(); err != nil {
			r.errCh <- err
			return
		}
		if err := r.readRequestHeaders(); err != nil {
			r.errCh <- err
			return
		}
		if err := r.readRequestBody(); err != nil {
			r.errCh <- err
			return
		}
		r.reqCh <- r.req
	}()
}

func (r *RequestReader) readRequestLine() error {
	rl, err := r.readRawLine()
	if err == io.EOF {
		return ErrEmptyRequest
	}
	if err != nil {
		return fmt.Errorf("failed to read request line: %w", err)
	}
	// Trailing empty fields are dropped, so "GET / HTTP/1.1 " is accepted;
	// empty fields anywhere else still count.
	fields := strings.Split(trimEOL(rl), " ")
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) != 3 {
		return fmt.Errorf("%w: %q", ErrMalformedRequest, trimEOL(rl))
	}
	r.req.Method = fields[0]
	r.req.URI = fields[1]
	r.req.Version = fields[2]
	return nil
}

func (r *RequestReader) readRequestHeaders() error {
	headers, raw, err := r.readHeaders()
	if err == nil {
		r.req.Headers = headers
		r.req.RawHeaders = raw
	}
	return err
}

// readRequestBody never retries: a short read is recorded on the request
// and left to the handler.
func (r *RequestReader) readRequestBody() error {
	if r.req.Method != MethodPost {
		return nil
	}
	cl, err := contentLength(r.req.Headers)
	if err != nil {
		return err
	}
	if cl == 0 {
		return nil
	}
	buf := make([]byte, cl)
	n, err := io.ReadFull(r.r, buf)
	r.req.Body = buf[:n]
	if err != nil {
		r.req.BodyShort = true
	}
	return nil
}

func (r *RequestReader) RequestReceived() <-chan *Request {
	return r.reqCh
}
