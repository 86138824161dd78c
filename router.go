package main

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// A GET or HEAD target ending in this suffix asks for a chunked response.
const chunkedSuffix = "?chunked"

type HandlerFunc func(req *Request) (*Response, error)

// Router picks a handler by method. It keeps no state between requests:
// the framing of each response is decided from that request alone.
type Router struct {
	resolver       *ResourceResolver
	chunked        bool
	paramsInfoPage string
	handlers       map[string]HandlerFunc
}

func NewRouter(cfg *ServerConfig) *Router {
	rt := &Router{
		resolver:       NewResourceResolver(cfg.Root, cfg.DefaultPage),
		chunked:        cfg.Chunked,
		paramsInfoPage: cfg.ParamsInfoPage,
		handlers:       make(map[string]HandlerFunc),
	}
	rt.Handle(MethodGet, rt.serveGet)
	rt.Handle(MethodPost, rt.servePost)
	rt.Handle(MethodHead, rt.serveHead)
	rt.Handle(MethodTrace, rt.serveTrace)
	return rt
}

func (rt *Router) Handle(method string, h HandlerFunc) {
	rt.handlers[method] = h
}

// Route always returns a response. Handler errors are turned into the
// matching error reply; HEAD keeps its no-body rule on errors too.
func (rt *Router) Route(req *Request) (*Response, error) {
	h, ok := rt.handlers[req.Method]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrMethodNotSupported, req.Method)
		return ResponseForError(err), err
	}
	res, err := h(req)
	if err != nil {
		res = ResponseForError(err)
		if req.Method == MethodHead {
			res.HeadOnly = true
		}
	}
	return res, err
}

// wantsChunked reads the raw header lines for a Transfer-Encoding: chunked
// line. On a request this is taken as a wish for a chunked reply and has no
// bearing on how the request body itself was read.
func wantsChunked(req *Request) bool {
	for _, line := range req.RawHeaders {
		fs := strings.SplitN(trimEOL(line), ":", 2)
		if len(fs) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(fs[0]), "Transfer-Encoding") &&
			strings.EqualFold(strings.TrimSpace(fs[1]), "chunked") {
			return true
		}
	}
	return false
}

func (rt *Router) framing(req *Request) Framing {
	if rt.chunked || wantsChunked(req) {
		return FramingChunked
	}
	return FramingFixed
}

// splitTarget strips the chunked suffix and reports whether it was there.
func splitTarget(target string) (string, bool) {
	if strings.HasSuffix(target, chunkedSuffix) {
		return strings.TrimSuffix(target, chunkedSuffix), true
	}
	return target, false
}

func (rt *Router) serveGet(req *Request) (*Response, error) {
	target, chunked := splitTarget(req.URI)
	res := rt.resolver.Resolve(target)
	body, err := res.ReadFile()
	if err != nil {
		return nil, err
	}
	r := NewResponse(StatusOK, string(res.ContentType), body)
	r.Framing = rt.framing(req)
	if chunked {
		r.Framing = FramingChunked
	}
	return r, nil
}

func (rt *Router) serveHead(req *Request) (*Response, error) {
	target, _ := splitTarget(req.URI)
	res := rt.resolver.Resolve(target)
	if !res.Exists {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, res.Target)
	}
	r := NewResponse(StatusOK, string(res.ContentType), nil)
	r.HeadOnly = true
	r.ContentLength = res.Size
	return r, nil
}

func (rt *Router) serveTrace(req *Request) (*Response, error) {
	body := []byte(strings.Join(req.RawHeaders, ""))
	return NewResponse(StatusOK, "message/http", body), nil
}

func (rt *Router) servePost(req *Request) (*Response, error) {
	params := ParseParams(string(req.Body))
	var page string
	if req.URI == rt.paramsInfoPage {
		page = renderParamsInfo(params)
	} else {
		page = renderAck()
	}
	r := NewResponse(StatusOK, string(ContentTypeHTML), []byte(page))
	r.Framing = rt.framing(req)
	return r, nil
}

type Param struct {
	Name  string
	Value string
}

// Params keeps form fields in arrival order. A repeated name overwrites the
// earlier value in place.
type Params []Param

func (ps Params) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (ps Params) set(name, value string) Params {
	for i := range ps {
		if ps[i].Name == name {
			ps[i].Value = value
			return ps
		}
	}
	return append(ps, Param{name, value})
}

// ParseParams decodes an application/x-www-form-urlencoded body. A pair must
// split on '=' into exactly two parts once trailing empty parts are dropped,
// so "a", "a=" and "a=b=c" are all skipped, as is a value that is not valid
// percent-encoding. Nothing here is an error.
func ParseParams(body string) Params {
	var ps Params
	for _, pair := range strings.Split(body, "&") {
		kv := strings.Split(pair, "=")
		for len(kv) > 0 && kv[len(kv)-1] == "" {
			kv = kv[:len(kv)-1]
		}
		if len(kv) != 2 {
			continue
		}
		v, err := url.QueryUnescape(kv[1])
		if err != nil {
			continue
		}
		ps = ps.set(kv[0], v)
	}
	return ps
}

func renderParamsInfo(ps Params) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<title>Parameters Info</title>\n</head>\n<body>\n<h1>Parameters Info</h1>\n<ul>")
	for _, p := range ps {
		fmt.Fprintf(&sb, "<li>%s: %s</li>", html.EscapeString(p.Name), html.EscapeString(p.Value))
	}
	sb.WriteString("</ul>\n</body>\n</html>")
	return sb.String()
}

func renderAck() string {
	return "<!DOCTYPE html>\n<html>\n<head>\n<title>Form Received</title>\n</head>\n<body>\n<h1>Form Received</h1>\n<p>Your submission was received.</p>\n</body>\n</html>"
}
