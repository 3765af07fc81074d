package server

import (
	"fmt"
	"net/http"
	"time"
)

// FrameSource provides the most recent camera frame as JPEG. seq changes
// whenever a new frame is stored; zero means nothing yet.
type FrameSource interface {
	JPEG() (data []byte, seq uint64)
}

// StreamHandler serves the camera preview as MJPEG.
type StreamHandler struct {
	frames FrameSource
	poll   time.Duration
}

// NewStreamHandler creates a StreamHandler reading from frames.
func NewStreamHandler(frames FrameSource) *StreamHandler {
	return &StreamHandler{frames: frames, poll: 33 * time.Millisecond}
}

// ServeHTTP writes each new frame as one multipart part until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	var last uint64
	for {
		if data, seq := h.frames.JPEG(); seq != 0 && seq != last {
			last = seq
			fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data))
			if _, err := w.Write(data); err != nil {
				return
			}
			fmt.Fprint(w, "\r\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
