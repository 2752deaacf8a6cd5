// Package identity resolves user pool settings from Amazon Cognito.
package identity

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/openfroyo/ucm/pkg/engine"
)

// API is the subset of the Cognito client used here.
type API interface {
	DescribeUserPool(ctx context.Context, in *cognitoidentityprovider.DescribeUserPoolInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DescribeUserPoolOutput, error)
}

// Cognito implements engine.IdentityProvider.
type Cognito struct {
	api API
}

var _ engine.IdentityProvider = (*Cognito)(nil)

// New wraps a Cognito client.
func New(api API) *Cognito {
	return &Cognito{api: api}
}

// NewFromConfig creates a Cognito identity provider from an AWS configuration.
func NewFromConfig(cfg aws.Config) *Cognito {
	return New(cognitoidentityprovider.NewFromConfig(cfg))
}

// UserPoolDomain returns the hosted UI domain prefix of a user pool, or ""
// when the pool has none. A pool that does not exist is reported as not found.
func (c *Cognito) UserPoolDomain(ctx context.Context, userPoolID string) (string, error) {
	out, err := c.api.DescribeUserPool(ctx, &cognitoidentityprovider.DescribeUserPoolInput{
		UserPoolId: aws.String(userPoolID),
	})
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return "", engine.NewNotFoundError("user pool does not exist", err).WithResource(userPoolID)
	}
	if err != nil {
		return "", engine.NewTransientError("failed to describe user pool", err).
			WithCode(engine.ErrCodeProviderFailed).WithResource(userPoolID)
	}
	if out.UserPool == nil {
		return "", nil
	}
	return aws.ToString(out.UserPool.Domain), nil
}
