// Package ingest moves documents into the index from every source the
// service accepts (HTTP, Kafka, start-up fixtures) and publishes documents
// to the ingest topic.
package ingest

import "time"

// Sources label where an added document came from.
const (
	SourceHTTP    = "http"
	SourceKafka   = "kafka"
	SourceFixture = "fixture"
)

// DocumentEvent is the payload of a message on the ingest topic.
type DocumentEvent struct {
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"published_at"`
}
