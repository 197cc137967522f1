// Package awsutil provides utilities for loading AWS configuration.
package awsutil

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
)

// Load loads the AWS configuration, using a custom endpoint if AWS_ENDPOINT_URL is set.
// The returned endpoint is empty when the default AWS endpoints are used.
func Load(ctx context.Context, region string) (aws.Config, string, error) {
	cfg, err := awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
	if err != nil {
		return aws.Config{}, "", err
	}
	endpoint := os.Getenv("AWS_ENDPOINT_URL") // e.g., http://localstack:4566
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}
	return cfg, endpoint, nil
}
