// Package singleinstance keeps one resident process per user session. A second
// launch asks the resident to open its overlay over loopback TCP and exits.
package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
	openRequest  = "OPEN\n"
	okResponse   = "OK\n"
	busyResponse = "BUSY\n"

	ioTimeout = 3 * time.Second
)

// ErrBusy is returned by RequestOpen when the resident refused the request.
var ErrBusy = errors.New("resident refused open request")

// Server answers PING and OPEN requests for the resident process.
type Server struct {
	lis    net.Listener
	port   int
	onOpen func() bool
}

// Listen binds the start port of the configured range. A bind failure means
// another resident already owns it. onOpen reports whether the request was
// accepted and runs on the connection goroutine.
func Listen(onOpen func() bool) (*Server, error) {
	start, _ := portRange()
	addr := net.JoinHostPort(residentHost, strconv.Itoa(start))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("singleinstance: bind %s: %w", addr, err)
	}
	log.Printf("singleinstance: listening on %s", addr)
	return &Server{lis: lis, port: start, onOpen: onOpen}, nil
}

// Port returns the bound port.
func (s *Server) Port() int { return s.port }

// Serve accepts requests until ctx is done or the server is closed.
func (s *Server) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = s.lis.Close()
	}()
	for {
		c, err := s.lis.Accept()
		if err != nil {
			return
		}
		go s.handle(c)
	}
}

func (s *Server) handle(c net.Conn) {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(ioTimeout))
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return
	}
	remote := c.RemoteAddr().String()
	var resp string
	switch line {
	case pingRequest:
		resp = pongResponse
	case openRequest:
		resp = busyResponse
		if s.onOpen != nil && s.onOpen() {
			resp = okResponse
		}
		log.Printf("singleinstance: OPEN from %s -> %q", remote, resp)
	default:
		log.Printf("singleinstance: unknown request %q from %s", line, remote)
		return
	}
	_, _ = c.Write([]byte(resp))
}

// Close stops accepting requests.
func (s *Server) Close() error { return s.lis.Close() }

// RequestOpen asks a running resident to open its overlay. It reports false
// with a nil error when no resident answers.
func RequestOpen(ctx context.Context) (bool, error) {
	timeout := 300 * time.Millisecond
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			timeout = d
		}
	}
	start, end := portRange()
	for port := start; port <= end; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if roundTrip(addr, pingRequest, timeout) != pongResponse {
			continue
		}
		switch resp := roundTrip(addr, openRequest, ioTimeout); resp {
		case okResponse:
			return true, nil
		case busyResponse:
			return true, ErrBusy
		default:
			return true, fmt.Errorf("singleinstance: unexpected response %q from %s", resp, addr)
		}
	}
	return false, nil
}

func roundTrip(addr, req string, timeout time.Duration) string {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return ""
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(req)); err != nil {
		return ""
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return ""
	}
	return resp
}
