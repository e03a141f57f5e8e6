package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/pharmacare-bot/internal/config"
)

// AWSClients holds the service clients the bot may use. A zero value means
// no AWS backend is configured.
type AWSClients struct {
	SQS    *sqs.Client
	Dynamo *dynamodb.Client
	S3     *s3.Client
	SES    *sesv2.Client
}

// NewAWSClients builds every client from one config.
func NewAWSClients(awsCfg aws.Config) AWSClients {
	return AWSClients{
		SQS:    sqs.NewFromConfig(awsCfg),
		Dynamo: dynamodb.NewFromConfig(awsCfg),
		S3:     s3.NewFromConfig(awsCfg),
		SES:    sesv2.NewFromConfig(awsCfg),
	}
}

// NeedsAWS reports whether any configured backend talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	if cfg == nil {
		return false
	}
	return !cfg.UseMemoryQueue ||
		cfg.SessionBackend == "dynamodb" || cfg.SessionBackend == "dynamo" ||
		cfg.ReceiptsBucket != "" ||
		cfg.SESFromEmail != ""
}
