package main

import (
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Server accepts connections on a single goroutine and hands each one to a
// fixed pool of workers. A worker serves its connection to completion
// before taking the next; there are no read or write deadlines.
type Server struct {
	cfg    *ServerConfig
	router *Router
	log    zerolog.Logger

	mu      sync.Mutex
	ln      net.Listener
	closing bool

	queue chan net.Conn
	wg    sync.WaitGroup
}

func NewServer(cfg *ServerConfig, log zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		router: NewRouter(cfg),
		log:    log,
	}
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve blocks until the listener fails or Close is called. Queued and
// in-flight connections are served before it returns.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	s.startPool()
	defer s.stopPool()

	s.log.Info().Str("addr", ln.Addr().String()).Int("workers", s.cfg.MaxThreads).Msg("listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn().Err(err).Msg("accept error")
			continue
		}
		s.queue <- conn
	}
}

func (s *Server) startPool() {
	s.queue = make(chan net.Conn, s.cfg.MaxThreads)
	for i := 0; i < s.cfg.MaxThreads; i++ {
		s.wg.Add(1)
		go func(id int) {
			defer s.wg.Done()
			log := s.log.With().Int("worker", id).Logger()
			for conn := range s.queue {
				NewWorker(s.router, log).Start(conn)
			}
		}(i)
	}
}

func (s *Server) stopPool() {
	close(s.queue)
	s.wg.Wait()
	s.log.Info().Msg("worker pool drained")
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Close stops accepting. Serve returns once the pool has drained.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}
