package environment

import (
	"os"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	NatsUrl     string
	NatsSubject string
	SqsQueueUrl string
}

// ReadEnvConfig loads reporter endpoints from the environment, with an
// optional .env file. Empty values mean the corresponding reporter stays
// disabled.
func ReadEnvConfig() *EnvConfig {
	_ = godotenv.Load()

	result := &EnvConfig{}

	result.NatsUrl = os.Getenv("NATS_URL")
	result.NatsSubject = os.Getenv("NATS_SUBJECT")
	if result.NatsSubject == "" {
		result.NatsSubject = "isocall.calls"
	}
	result.SqsQueueUrl = os.Getenv("SQS_QUEUE_URL")

	return result
}
