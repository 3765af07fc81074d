package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// LatestFrame holds the most recent frame as JPEG so the preview stream can
// read it without competing with the frame pump for the camera.
type LatestFrame struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

// Put encodes frame and replaces the held image.
func (l *LatestFrame) Put(frame *gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	l.PutJPEG(data)
	return nil
}

// PutJPEG replaces the held image with already-encoded bytes.
func (l *LatestFrame) PutJPEG(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jpeg = data
	l.seq++
}

// JPEG returns the held image and its sequence number. The sequence is zero
// until the first Put.
func (l *LatestFrame) JPEG() ([]byte, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.jpeg, l.seq
}
