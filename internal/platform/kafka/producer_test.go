package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}

func TestConnectOptional_NoBrokers(t *testing.T) {
	producer, cleanup := ConnectOptional("  ", nil)
	assert.Nil(t, producer)
	cleanup()
}
