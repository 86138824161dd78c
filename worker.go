package main

import (
	"bufio"
	"errors"
	"net"

	"github.com/rs/zerolog"
)

// Worker owns one accepted connection from the first byte read until the
// socket is closed. It serves exactly one request.
type Worker struct {
	conn      net.Conn
	reader    *bufio.Reader
	router    *Router
	log       zerolog.Logger
	req       *Request
	res       *Response
	responded bool
}

type stateFunc func(*Worker) stateFunc

func NewWorker(router *Router, log zerolog.Logger) *Worker {
	return &Worker{
		router: router,
		log:    log,
	}
}

// Start runs the connection to completion. The worker takes ownership of
// conn and always closes it, whatever happens while serving.
func (w *Worker) Start(conn net.Conn) {
	w.conn = conn
	w.reader = bufio.NewReader(conn)
	if addr := conn.RemoteAddr(); addr != nil {
		w.log = w.log.With().Str("remote", addr.String()).Logger()
	}

	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Msg("connection handler panicked")
			if !w.responded {
				w.res = ResponseInternalError()
				sendResponse(w)
			}
			finishWorker(w)
		}
	}()

	for state := waitForRequest; state != nil; {
		state = state(w)
	}
}

func (w *Worker) requestReceived(req *Request) stateFunc {
	w.req = req
	w.log = w.log.With().Str("method", req.Method).Str("target", req.URI).Logger()
	if req.BodyShort {
		w.log.Warn().Int("received", len(req.Body)).Msg("request body shorter than Content-Length")
	}

	res, err := w.router.Route(req)
	w.res = res
	if err != nil {
		return w.routeFailed(err)
	}
	return sendResponse
}

func (w *Worker) routeFailed(err error) stateFunc {
	switch {
	case errors.Is(err, ErrResourceRead):
		w.log.Error().Err(err).Msg("routing failed")
	default:
		w.log.Warn().Err(err).Msg("routing failed")
	}
	return sendResponse
}

// state funcs

func waitForRequest(w *Worker) stateFunc {
	w.log.Debug().Msg("waiting request")
	r := NewRequestReader(w.reader)
	r.Start()
	select {
	case req := <-r.RequestReceived():
		return w.requestReceived(req)
	case err := <-r.ErrorOccurred():
		w.res = ResponseForError(err)
		if w.res.Status == StatusInternalServerError {
			w.log.Error().Err(err).Msg("reading request failed")
		} else {
			w.log.Warn().Err(err).Msg("bad request")
		}
		return sendResponse
	}
}

func sendResponse(w *Worker) stateFunc {
	// Only one response per connection, even if a later state asks again.
	if w.responded {
		return finishWorker
	}
	w.responded = true
	if err := WriteResponse(w.conn, w.res); err != nil {
		w.log.Error().Err(err).Msg("writing response failed")
		return finishWorker
	}
	w.log.Info().
		Int("status", w.res.Status).
		Str("framing", w.res.Framing.String()).
		Msgf("%d %s", w.res.Status, w.res.Phrase)
	return finishWorker
}

func finishWorker(w *Worker) stateFunc {
	if w.conn != nil {
		if err := w.conn.Close(); err != nil {
			w.log.Debug().Err(err).Msg("close connection")
		}
		w.conn = nil
	}
	w.log.Debug().Msg("worker finished")
	return nil
}
