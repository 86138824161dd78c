package main

import (
	"bufio"
	"fmt"
	"io"
)

// Size of each chunk emitted for a chunked body. Has no meaning on the wire.
var chunkSize = 1024

func writeStatusLine(w io.Writer, res *Response) {
	phrase := res.Phrase
	if phrase == "" {
		phrase = statusText[res.Status]
	}
	fmt.Fprintf(w, "%s %d %s\r\n", res.Version, res.Status, phrase)
	if res.ContentType != "" {
		fmt.Fprintf(w, "Content-Type: %s\r\n", res.ContentType)
	}
}

// WriteResponse serializes res onto w: one status line, one header block,
// then the body either in a single block (fixed) or as a run of
// length-prefixed chunks closed by the zero chunk.
func WriteResponse(w io.Writer, res *Response) error {
	bw := bufio.NewWriter(w)
	writeStatusLine(bw, res)

	if res.HeadOnly || res.Framing != FramingChunked {
		n := int64(len(res.Body))
		if res.HeadOnly {
			n = res.ContentLength
		}
		fmt.Fprintf(bw, "Content-Length: %d\r\n\r\n", n)
		if !res.HeadOnly {
			bw.Write(res.Body)
		}
		return flushResponse(bw)
	}

	bw.WriteString("Transfer-Encoding: chunked\r\n\r\n")
	cw := NewChunkedWriter(bw)
	for body := res.Body; len(body) > 0; {
		n := min(chunkSize, len(body))
		if _, err := cw.Write(body[:n]); err != nil {
			return fmt.Errorf("%w: %v", ErrResponseWrite, err)
		}
		body = body[n:]
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseWrite, err)
	}
	return flushResponse(bw)
}

func flushResponse(bw *bufio.Writer) error {
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseWrite, err)
	}
	return nil
}
