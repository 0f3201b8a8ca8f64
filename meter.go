package gopherwalk

// MeterOutcome tags how a size-metering drain concluded.
type MeterOutcome int

const (
	MeterSize MeterOutcome = iota
	MeterTooLarge
	MeterTimedOut
)

// MeterResult is the outcome of draining one file response. Size is only
// meaningful when Outcome is MeterSize, and is always in [0, FileLimit).
type MeterResult struct {
	Outcome MeterOutcome
	Size    int
}

// MeterFile opens a fresh session to selector and drains the response,
// counting bytes without retaining them, until EOF or FileLimit is reached.
// The first recv uses InitialRecvTimeout; every subsequent chunk gets a
// fresh InterChunkTimeout, recomputed on every iteration rather than reused
// from a value captured before the loop started.
func MeterFile(ep Endpoint, selector string) (MeterResult, error) {
	sess, err := Open(ep)
	if err != nil {
		return MeterResult{}, err
	}
	defer sess.Close()

	if err := sess.Send(selector); err != nil {
		return MeterResult{}, err
	}

	var (
		buf       [scratchSize]byte
		total     int
		deadline  = InitialRecvTimeout
		firstRead = true
	)

	for {
		n, err := sess.Recv(buf[:], deadline)
		if err == ErrReadTimeout {
			return MeterResult{Outcome: MeterTimedOut}, nil
		}
		if err != nil {
			return MeterResult{}, err
		}
		if n == 0 {
			return MeterResult{Outcome: MeterSize, Size: total}, nil
		}

		total += n
		if total >= FileLimit {
			return MeterResult{Outcome: MeterTooLarge}, nil
		}

		if firstRead {
			deadline = InterChunkTimeout
			firstRead = false
		}
	}
}
