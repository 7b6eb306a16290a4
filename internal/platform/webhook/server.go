package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bot_messages_processed_total",
	Help: "Inbound webhook messages by outcome.",
}, []string{"status"})

// Processor handles one inbound message to completion before the webhook
// acknowledges it.
type Processor interface {
	Process(senderID, text string)
}

type Server struct {
	processor Processor
	srv       *http.Server
}

func NewServer(port string, processor Processor) *Server {
	s := &Server{processor: processor}

	r := mux.NewRouter()
	r.HandleFunc("/whatsapp", s.handleMessage).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// handleMessage accepts a Twilio form-encoded delivery and processes it
// synchronously; the 200 acknowledges a fully handled message.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		messagesProcessed.WithLabelValues("bad_request").Inc()
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" {
		messagesProcessed.WithLabelValues("bad_request").Inc()
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}

	s.processor.Process(from, body)
	messagesProcessed.WithLabelValues("ok").Inc()
	w.WriteHeader(http.StatusOK)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		logrus.WithError(err).Error("Failed to write health response")
	}
}

func (s *Server) ListenAndServe() error {
	logrus.WithField("addr", s.srv.Addr).Info("Webhook server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
