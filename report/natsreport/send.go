package natsreport

import (
	"encoding/json"
	"log"
)

func (r *natsReporter) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal message: %v", err)
		return
	}

	if err := r.nc.Publish(r.subject, b); err != nil {
		log.Printf("failed to publish message to NATS: %v", err)
	}
}
