package publisher

// Publisher represents a service for publishing price-change events
type Publisher interface {
	// Publish publishes one event message keyed by sku
	Publish(sku string, message []byte) error

	// TrimStream trims the stream to the configured maximum length
	TrimStream() error

	// Close closes the publisher connection
	Close() error
}
