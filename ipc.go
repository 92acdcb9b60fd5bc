package main

import (
	"fmt"
	"strings"

	"io"
	"net"
	"time"
)

func newIpcListener(sf string, c cmdHandler) (*ipcListener, error) {
	s := &ipcListener{
		quit:  make(chan interface{}),
		conns: make(map[int]net.Conn),
	}
	l, err := net.Listen("unix", sf)
	if err != nil {
		return nil, err
	}
	s.listener = l
	s.wg.Add(1)
	go s.serve(c)
	return s, nil
}

func newCmdHandler() cmdHandler {
	return make(cmdHandler) // Not really a handler in the true sense
}

func (c cmdHandler) register(n string, h cmdHandlerFunc) {
	c[n] = h
}

// run a single command line, returns the response sent back to the client
func (c cmdHandler) run(req string) string {
	args := strings.Fields(req)
	if len(args) == 0 {
		return "ok"
	}

	f, ok := c[args[0]]
	if !ok {
		return "unknown command " + args[0]
	}

	s := time.Now()
	return fmt.Sprintf("%s: %s (%dms)", args[0], f(args[1:]), time.Since(s).Milliseconds())
}

func (s *ipcListener) stop() {
	close(s.quit)
	s.listener.Close()

	s.mu.Lock()
	for k, ic := range s.conns {
		ic.Close()
		delete(s.conns, k)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// backoff returns how long to wait after a failed accept, d is the previous wait.
// starts at 5ms and doubles up to 1s, same as net/http
func backoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	return min(2*d, time.Second)
}

func (s *ipcListener) serve(c cmdHandler) {
	id := 0
	defer s.wg.Done()

	var delay time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}

			delay = backoff(delay)
			errorlog.Printf("socket accept error: %v; retrying in %v", err, delay)
			select {
			case <-s.quit:
				return
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		id++
		s.mu.Lock()
		s.conns[id] = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go func(id int) {
			s.ipc(id, conn, c)

			s.mu.Lock()
			delete(s.conns, id)
			s.mu.Unlock()
			s.wg.Done()
		}(id)
		infolog.Printf("ipc: new conn id %d", id)
	}
}

func (s *ipcListener) ipc(id int, conn net.Conn, c cmdHandler) {
	defer conn.Close()

	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if err != nil && err != io.EOF {
			select {
			case <-s.quit:
			default:
				errorlog.Printf("ipc: read error: %v", err)
			}
			return
		}
		if n == 0 {
			return
		}
		req := string(buf[:n])

		infolog.Printf("ipc: %d ran %v", id, req)
		io.WriteString(conn, c.run(req))
	}
}
