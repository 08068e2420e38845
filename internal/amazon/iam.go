// Package amazon issues and revokes IAM access keys for the calling user.
package amazon

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/PolarWolf314/credo/internal/credentials"
	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// DefaultRegion is used when none is configured. IAM is global; the region
// only selects the endpoint.
const DefaultRegion = "us-east-1"

type iamAPI interface {
	CreateAccessKey(ctx context.Context, params *iam.CreateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.CreateAccessKeyOutput, error)
	DeleteAccessKey(ctx context.Context, params *iam.DeleteAccessKeyInput, optFns ...func(*iam.Options)) (*iam.DeleteAccessKeyOutput, error)
}

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// IAM talks to AWS as the owner of the current key.
type IAM struct {
	Region string

	// newClients is replaced in tests.
	newClients func(ctx context.Context, cfg aws.Config) (iamAPI, stsAPI)
}

var _ credentials.Issuer = (*IAM)(nil)

// NewIAM returns an issuer for region.
func NewIAM(region string) *IAM {
	return &IAM{Region: region}
}

func (i *IAM) clients(ctx context.Context, current credentials.Key) (iamAPI, stsAPI, error) {
	if current.AccessKey == "" || current.SecretKey == "" {
		return nil, nil, kerrors.New(kerrors.ErrNoCredentialsFound, "Need a usable key to talk to AWS")
	}

	region := i.Region
	if region == "" {
		region = DefaultRegion
	}

	// Keys come from credo's own store, never from the shared aws files.
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigFiles([]string{}),
		config.WithSharedCredentialsFiles([]string{}),
		config.WithRegion(region),
		config.WithCredentialsProvider(awscreds.NewStaticCredentialsProvider(current.AccessKey, current.SecretKey, "")),
	)
	if err != nil {
		return nil, nil, kerrors.New(kerrors.ErrConfiguration, "Couldn't configure AWS client", "error", err)
	}

	if i.newClients != nil {
		iamClient, stsClient := i.newClients(ctx, cfg)
		return iamClient, stsClient, nil
	}
	return iam.NewFromConfig(cfg), sts.NewFromConfig(cfg), nil
}

// Issue creates a new access key for the user owning current.
func (i *IAM) Issue(ctx context.Context, current credentials.Key) (credentials.Key, error) {
	iamClient, _, err := i.clients(ctx, current)
	if err != nil {
		return credentials.Key{}, err
	}

	out, err := iamClient.CreateAccessKey(ctx, &iam.CreateAccessKeyInput{})
	if err != nil {
		return credentials.Key{}, fmt.Errorf("creating access key: %w", err)
	}
	if out.AccessKey == nil {
		return credentials.Key{}, kerrors.New(kerrors.ErrInvariant, "AWS returned no access key")
	}

	key := credentials.Key{
		AccessKey: aws.ToString(out.AccessKey.AccessKeyId),
		SecretKey: aws.ToString(out.AccessKey.SecretAccessKey),
		CreatedAt: aws.ToTime(out.AccessKey.CreateDate).UTC(),
		State:     credentials.Active,
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}
	return key, nil
}

// Revoke deletes accessKey, authenticating as current.
func (i *IAM) Revoke(ctx context.Context, current credentials.Key, accessKey string) error {
	iamClient, _, err := i.clients(ctx, current)
	if err != nil {
		return err
	}

	if _, err := iamClient.DeleteAccessKey(ctx, &iam.DeleteAccessKeyInput{AccessKeyId: aws.String(accessKey)}); err != nil {
		return fmt.Errorf("deleting access key: %w", err)
	}
	return nil
}

// CallerAccount returns the AWS account that owns key.
func (i *IAM) CallerAccount(ctx context.Context, key credentials.Key) (string, error) {
	_, stsClient, err := i.clients(ctx, key)
	if err != nil {
		return "", err
	}

	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("getting caller identity: %w", err)
	}
	return aws.ToString(out.Account), nil
}
