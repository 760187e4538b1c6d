package sqsreport

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// New creates an SQS reporter that sends call events to the given queue.
// AWS credentials and region come from the default config chain.
func New(queueUrl string) *sqsReporter {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}

	return &sqsReporter{
		sqsClient: sqs.NewFromConfig(cfg),
		queueUrl:  queueUrl,
	}
}
