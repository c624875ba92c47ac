package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // Require all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false
	DefaultProducerWriteTimeout = 5 * time.Second

	DefaultDLQTopic = ""

	DefaultEnableMiddleware = true
)
