package ingest

import (
	"encoding/json"
	"log"

	"IoMTSpectra/internal/config"
	"IoMTSpectra/internal/model"

	"github.com/nats-io/nats.go"
)

// RecordHandler is a function that processes a received FlowRecord.
type RecordHandler func(rec model.FlowRecord)

// Subscriber subscribes to the flow record subject and hands decoded
// records to a handler.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber connects to NATS and returns a subscriber for the
// configured subject.
func NewSubscriber(cfg config.IngestConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes and begins processing messages with the handler.
// Malformed payloads are logged and skipped.
func (s *Subscriber) Start(handler RecordHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		var rec model.FlowRecord
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			log.Printf("Error unmarshalling flow record: %v", err)
			return
		}
		handler(rec)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for flow records...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
