// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package exchange

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// PublishRequest is the outbound translation-request message. The vendor
// account fields are passed through from configuration unmodified.
type PublishRequest struct {
	Title            string          `json:"title"`
	Content          string          `json:"content"` // exchange-document XML
	Language         RequestLanguage `json:"language"`
	ExternalID       string          `json:"external_id"`
	Fast             bool            `json:"fast"`
	Comment          string          `json:"comment,omitempty"`
	Deadline         string          `json:"deadline,omitempty"`
	InvoicingAccount string          `json:"invoicing_account,omitempty"`
	APIKey           string          `json:"api_key,omitempty"`
	ServiceID        string          `json:"service_id,omitempty"`
	WorkArea         string          `json:"work_area,omitempty"`
	Terminology      string          `json:"terminology,omitempty"`
}

// RequestLanguage names the source and requested target languages.
type RequestLanguage struct {
	To   []string `json:"to"`
	From string   `json:"from"`
}

// Publisher ships a translation request to the vendor.
type Publisher interface {
	Publish(ctx context.Context, req *PublishRequest) error
}

// SNSPublisher publishes requests on the shared vendor topic.
type SNSPublisher struct {
	client   *sns.Client
	topicARN string
}

// NewSNSPublisher creates a publisher using the ambient AWS credential chain.
func NewSNSPublisher(ctx context.Context, region, topicARN string) (*SNSPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, transportFailure("loading AWS configuration", err)
	}
	return &SNSPublisher{
		client:   sns.NewFromConfig(awsCfg),
		topicARN: topicARN,
	}, nil
}

// Publish implements Publisher. Failures surface synchronously to the
// caller; there is no internal retry.
func (p *SNSPublisher) Publish(ctx context.Context, req *PublishRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return transportFailure("encoding publish payload", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		return transportFailure("publishing to vendor topic", err)
	}
	return nil
}
