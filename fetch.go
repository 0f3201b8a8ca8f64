package gopherwalk

import (
	"bytes"
	"io"
)

// OpenMenu opens a session to selector and returns a Parser reading its
// response. The caller owns the returned Session and must Close it on every
// exit path; the crawl engine does so via defer at each call site.
func OpenMenu(ep Endpoint, selector string) (*Session, *Parser, error) {
	sess, err := Open(ep)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Send(selector); err != nil {
		sess.Close()
		return nil, nil, err
	}
	return sess, NewParser(&sessionReader{sess}), nil
}

// sessionReader adapts a Session to io.Reader using the layered timeouts:
// the first read waits up to InitialRecvTimeout, every subsequent read up
// to InterChunkTimeout, refreshed on each call.
type sessionReader struct {
	sess *Session
}

func (r *sessionReader) Read(p []byte) (int, error) {
	deadline := InterChunkTimeout
	if !r.sess.readStarted {
		deadline = InitialRecvTimeout
	}
	n, err := r.sess.Recv(p, deadline)
	r.sess.readStarted = true
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// StreamContent copies sess's response to w, stopping at the Gopher
// terminator sequence ".\r\n" if one appears, or at EOF otherwise. Used by
// the analyzer to print the smallest text file's contents.
func StreamContent(w io.Writer, sess *Session) error {
	return streamContent(w, &sessionReader{sess})
}

func streamContent(w io.Writer, r io.Reader) error {
	const term = ".\r\n"
	buf := make([]byte, scratchSize)
	var tail []byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append(tail, buf[:n]...)
			if i := bytes.Index(chunk, []byte(term)); i >= 0 {
				_, werr := w.Write(chunk[:i])
				return werr
			}
			keep := len(term) - 1
			if keep > len(chunk) {
				keep = len(chunk)
			}
			flushN := len(chunk) - keep
			if flushN > 0 {
				if _, werr := w.Write(chunk[:flushN]); werr != nil {
					return werr
				}
			}
			tail = append([]byte(nil), chunk[flushN:]...)
		}
		if err != nil {
			if err == io.EOF {
				if len(tail) > 0 {
					_, werr := w.Write(tail)
					return werr
				}
				return nil
			}
			return err
		}
	}
}
