package pairing

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

type lineResult struct {
	capture Capture
	err     error
}

// LineSource is a CaptureSource reading codes from a text stream, one capture
// per line. Tab-separated codes on the same line form a single capture, which
// is how keyboard-wedge scanners report several codes seen at once. Blank
// lines are skipped.
type LineSource struct {
	r       io.Reader
	results chan lineResult
	stop    chan struct{}
	once    sync.Once
}

// NewLineSource starts reading r. If r is an io.Closer it is closed by Close.
func NewLineSource(r io.Reader) *LineSource {
	s := &LineSource{
		r:       r,
		results: make(chan lineResult),
		stop:    make(chan struct{}),
	}
	go s.scan()
	return s
}

func (s *LineSource) scan() {
	defer close(s.results)

	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 4096), maxPayloadSize*4)

	for scanner.Scan() {
		codes := splitCodes(scanner.Text())
		if len(codes) == 0 {
			continue
		}
		select {
		case s.results <- lineResult{capture: Capture{Codes: codes}}:
		case <-s.stop:
			return
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case s.results <- lineResult{err: err}:
	case <-s.stop:
	}
}

// Next returns the next capture, io.EOF at end of input, or ctx's error.
func (s *LineSource) Next(ctx context.Context) (Capture, error) {
	select {
	case res, ok := <-s.results:
		if !ok {
			return Capture{}, io.EOF
		}
		return res.capture, res.err
	case <-ctx.Done():
		return Capture{}, ctx.Err()
	}
}

// Close stops reading. It is safe to call more than once.
func (s *LineSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		if c, ok := s.r.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func splitCodes(line string) []string {
	var codes []string
	for _, part := range strings.Split(line, "\t") {
		if part = strings.TrimSpace(part); part != "" {
			codes = append(codes, part)
		}
	}
	return codes
}
