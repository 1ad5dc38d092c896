// Package preview serves the annotated frames as MJPEG along with the latest keypoint and loop stats.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hybridgroup/mjpeg"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/genert/movenet"
)

var (
	boxColor      = color.RGBA{R: 0, G: 255, B: 255}
	keypointColor = color.RGBA{R: 255, G: 0, B: 0}
	textColor     = color.RGBA{R: 255, G: 255, B: 0}
)

// Server MJPEG preview. Implements movenet.Reporter.
type Server struct {
	stream *mjpeg.Stream
	stats  *movenet.Stats
	port   int
	logger logrus.FieldLogger

	mu   sync.RWMutex
	last *movenet.Report
}

// New Creates the preview server, stats may be nil
func New(settings movenet.MjpegSettings, stats *movenet.Stats, logger logrus.FieldLogger) *Server {
	return &Server{
		stream: mjpeg.NewStream(),
		stats:  stats,
		port:   settings.Port,
		logger: logger,
	}
}

// Handler returns the CORS enabled router
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/keypoint", s.serveKeypoint).Methods(http.MethodGet)
	router.HandleFunc("/stats", s.serveStats).Methods(http.MethodGet)
	router.Handle("/", s.stream)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

// Start Serves in a separate goroutine until ctx is done
func (s *Server) Start(ctx context.Context) {
	srv := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", s.port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Warn("MJPEG server shutdown")
		}
	}()

	go func() {
		s.logger.Infof("Starting MJPEG on http://localhost:%d", s.port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("MJPEG server failed")
		}
	}()
}

// Report Keeps the latest result and pushes the annotated frame to the stream
func (s *Server) Report(r *movenet.Report) {
	last := *r
	last.Frame = nil
	s.mu.Lock()
	s.last = &last
	s.mu.Unlock()

	if r.Frame == nil {
		return
	}
	buf, err := render(r)
	if err != nil {
		s.logger.WithError(err).Warn("Error while encoding preview frame")
		return
	}
	s.stream.UpdateJPEG(buf)
}

// Last returns the latest report, nil before the first frame
func (s *Server) Last() *movenet.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// render Draws crop box and keypoint over the captured frame
func render(r *movenet.Report) ([]byte, error) {
	img, err := gocv.IMDecode(r.Frame.Data, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrap(err, "Can't decode frame")
	}
	defer img.Close()
	if img.Empty() {
		return nil, errors.New("Empty frame has been detected")
	}

	width, height := img.Cols(), img.Rows()
	if rect, err := r.Box.Rect(width, height); err == nil {
		gocv.Rectangle(&img, rect, boxColor, 1)
	}
	gocv.Circle(&img, movenet.KeypointPoint(r.Keypoint, r.Box, width, height), 4, keypointColor, -1)
	label := fmt.Sprintf("%.1f ms  score %.2f", float64(r.Elapsed)/float64(time.Millisecond), r.Keypoint.Score)
	gocv.PutText(&img, label, image.Pt(8, 20), gocv.FontHersheyPlain, 1.2, textColor, 1)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, errors.Wrap(err, "Can't encode frame")
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

func (s *Server) serveKeypoint(w http.ResponseWriter, _ *http.Request) {
	last := s.Last()
	if last == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, s.logger, last)
}

func (s *Server) serveStats(w http.ResponseWriter, _ *http.Request) {
	if s.stats == nil {
		http.Error(w, "stats unavailable", http.StatusNotFound)
		return
	}
	writeJSON(w, s.logger, s.stats.Snapshot())
}

func writeJSON(w http.ResponseWriter, logger logrus.FieldLogger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Warn("Failed to encode JSON response")
	}
}
