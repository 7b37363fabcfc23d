package config

import (
	"os"
	"strings"
)

const (
	envKafkaBrokers = "STOREFRONT_KAFKA_BROKERS"

	defaultKafkaBroker = "localhost:9092"
)

// KafkaBrokers returns the broker addresses from the environment as a
// comma-separated list, falling back to the local development default.
// Empty entries are dropped.
func KafkaBrokers() []string {
	raw := os.Getenv(envKafkaBrokers)
	if raw == "" {
		return []string{defaultKafkaBroker}
	}

	var brokers []string

	for _, broker := range strings.Split(raw, ",") {
		broker = strings.TrimSpace(broker)
		if broker != "" {
			brokers = append(brokers, broker)
		}
	}

	if len(brokers) == 0 {
		return []string{defaultKafkaBroker}
	}

	return brokers
}
