package awsauth

import (
	"context"
	"fmt"
	"log/slog"

	"outreach/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Source identifies which credential source won the resolution.
type Source string

const (
	SourceProfile      Source = "profile"
	SourceStaticKeys   Source = "static_keys"
	SourceDefaultChain Source = "default_chain"
)

// Options selects the credential sources to try. Region is always applied.
type Options struct {
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// loadFn matches awsconfig.LoadDefaultConfig; swapped out in tests.
type loadFn func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error)

// Resolver picks AWS credentials by priority: named profile, then explicit
// keys, then the SDK default chain. Each candidate is validated by actually
// retrieving credentials, so a broken profile falls through instead of
// failing later at the first API call.
type Resolver struct {
	load   loadFn
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{load: awsconfig.LoadDefaultConfig, logger: logger}
}

// Resolve returns a usable aws.Config and the source that produced it.
// All sources failing yields a *domain.CredentialsError wrapping the last
// cause. The result is intended to be resolved once and reused for the
// process lifetime.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (aws.Config, Source, error) {
	var lastErr error

	if opts.Profile != "" {
		cfg, err := r.load(ctx,
			awsconfig.WithSharedConfigProfile(opts.Profile),
			awsconfig.WithRegion(opts.Region),
		)
		if err == nil {
			if _, err = cfg.Credentials.Retrieve(ctx); err == nil {
				r.logger.Info("using aws profile", "profile", opts.Profile, "region", opts.Region)
				return cfg, SourceProfile, nil
			}
		}
		lastErr = fmt.Errorf("profile %q: %w", opts.Profile, err)
		r.logger.Warn("aws profile unavailable, falling back", "profile", opts.Profile, "err", err)
	}

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg, err := r.load(ctx,
			awsconfig.WithRegion(opts.Region),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
			),
		)
		if err == nil {
			if _, err = cfg.Credentials.Retrieve(ctx); err == nil {
				r.logger.Info("using aws credentials from environment", "region", opts.Region)
				return cfg, SourceStaticKeys, nil
			}
		}
		lastErr = fmt.Errorf("static keys: %w", err)
		r.logger.Warn("explicit aws keys unusable, falling back", "err", err)
	}

	cfg, err := r.load(ctx, awsconfig.WithRegion(opts.Region))
	if err == nil {
		if _, err = cfg.Credentials.Retrieve(ctx); err == nil {
			r.logger.Info("using default aws credential chain", "region", opts.Region)
			return cfg, SourceDefaultChain, nil
		}
	}
	if err != nil {
		lastErr = fmt.Errorf("default chain: %w", err)
	}

	return aws.Config{}, "", &domain.CredentialsError{Err: lastErr}
}
