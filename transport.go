package gopherwalk

import (
	"errors"
	"net"
	"time"
)

// InitialRecvTimeout and InterChunkTimeout are vars, not consts, so tests
// can shrink them for the duration of a single case instead of waiting out
// the real deadlines.
var (
	// InitialRecvTimeout bounds both the TCP connect and the first recv of
	// a response; it fires as a ReadTimeout if the server never answers.
	InitialRecvTimeout = 10 * time.Second

	// InterChunkTimeout is the deadline between successive chunks of a
	// multi-read drain (size metering, content printing). It is refreshed
	// before every read, unlike the source's single fd_set/timeval pair
	// reused across select() calls.
	InterChunkTimeout = 5 * time.Second
)

const (
	// ProbeTimeout bounds a reachability probe's connect attempt.
	ProbeTimeout = 5 * time.Second

	// FileLimit is the hard cap on bytes read from a single file response.
	FileLimit = 65536

	// scratchSize is the buffer size used to drain a response; the meter
	// never retains more than this much content at once.
	scratchSize = 4096
)

// Sentinel errors distinguishing connect, send, and read failures so
// callers can assign each its own disposition.
var (
	ErrConnectFailure = errors.New("gopherwalk: connect failure")
	ErrSendFailure    = errors.New("gopherwalk: send failure")
	ErrReadFailure    = errors.New("gopherwalk: read failure")
	ErrReadTimeout    = errors.New("gopherwalk: read timeout")
)

// Session is one Gopher request's connection lifecycle: open, send the
// selector, read the reply, close. Gopher is one-shot per connection, so a
// Session is never reused across requests.
type Session struct {
	conn        net.Conn
	readStarted bool
}

// Open dials the endpoint with the connect timeout applied. Fails with
// ErrConnectFailure wrapping the underlying dial error.
func Open(ep Endpoint) (*Session, error) {
	conn, err := net.DialTimeout("tcp", ep.addr(), InitialRecvTimeout)
	if err != nil {
		return nil, joinf(ErrConnectFailure, err)
	}
	return &Session{conn: conn}, nil
}

// Send transmits selector+CRLF as a single write.
func (s *Session) Send(selector string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(InitialRecvTimeout)); err != nil {
		return joinf(ErrSendFailure, err)
	}
	if _, err := s.conn.Write([]byte(selector + CRLF)); err != nil {
		return joinf(ErrSendFailure, err)
	}
	return nil
}

// Recv reads into buf using the per-recv deadline. It returns 0, nil on a
// clean EOF, a positive count on a successful read, or ErrReadTimeout /
// ErrReadFailure on failure.
func (s *Session) Recv(buf []byte, deadline time.Duration) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(deadline)); err != nil {
		return 0, joinf(ErrReadFailure, err)
	}
	n, err := s.conn.Read(buf)
	if err != nil {
		if n > 0 {
			return n, nil
		}
		if errTimeout(err) {
			return 0, ErrReadTimeout
		}
		if isEOF(err) {
			return 0, nil
		}
		return 0, joinf(ErrReadFailure, err)
	}
	return n, nil
}

// Close is idempotent; callers invoke it on every exit path via defer.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func errTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isEOF(err error) bool {
	return errors.Is(err, errEOF)
}
