package kafka

import "github.com/segmentio/kafka-go"

// headerCarrier lets the otel propagator write trace context into message headers.
type headerCarrier []kafka.Header

func (c *headerCarrier) Get(key string) string {
	for _, h := range *c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range *c {
		if h.Key == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, len(*c))
	for i, h := range *c {
		keys[i] = h.Key
	}
	return keys
}

// Header returns the value of a header on msg, or "".
func Header(msg kafka.Message, key string) string {
	carrier := headerCarrier(msg.Headers)
	return carrier.Get(key)
}
