package queue

import (
	"fmt"
	"strings"

	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/utils"
)

// NewQueue creates a new Queue instance based on events configuration.
// Default is NATS if type is not specified.
func NewQueue(cfg config.EventsConfig) (Queue, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))
	if queueType == "" {
		queueType = utils.QueueTypeNATS
	}

	switch queueType {
	case utils.QueueTypeNATS:
		return newNATSQueue(NATSConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
		})

	case utils.QueueTypeRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			MaxLen:   cfg.RedisMaxLen,
		})

	case utils.QueueTypeKafka:
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = strings.Split(cfg.URL, ",")
		}
		return newKafkaQueue(KafkaConfig{Brokers: brokers})

	case utils.QueueTypeMemory:
		return newMemoryQueue(), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}

// NewPublisher creates a Publisher for the analysis event stream
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	return NewQueue(cfg)
}

// NewSubscriber creates a Subscriber for the analysis event stream
func NewSubscriber(cfg config.EventsConfig) (Subscriber, error) {
	return NewQueue(cfg)
}
