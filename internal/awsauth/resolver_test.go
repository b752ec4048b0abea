package awsauth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"outreach/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func goodCreds(source string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET", Source: source}, nil
	})
}

func badCreds(msg string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{}, errors.New(msg)
	})
}

// applyOpts materializes the load options so the fake loader can inspect
// which source the resolver asked for.
func applyOpts(optFns []func(*awsconfig.LoadOptions) error) awsconfig.LoadOptions {
	var lo awsconfig.LoadOptions
	for _, fn := range optFns {
		_ = fn(&lo)
	}
	return lo
}

func TestResolve_ProfileWinsOverExplicitKeys(t *testing.T) {
	r := NewResolver(testLogger())
	r.load = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		lo := applyOpts(optFns)
		if lo.SharedConfigProfile == "sso-profile" {
			return aws.Config{Region: lo.Region, Credentials: goodCreds("profile")}, nil
		}
		t.Fatalf("resolver should try the profile first, asked for %+v", lo)
		return aws.Config{}, nil
	}

	_, source, err := r.Resolve(context.Background(), Options{
		Profile:         "sso-profile",
		AccessKeyID:     "AKIDEXPLICIT",
		SecretAccessKey: "SECRETEXPLICIT",
		Region:          "us-east-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != SourceProfile {
		t.Fatalf("expected profile source, got %q", source)
	}
}

func TestResolve_FallsBackToExplicitKeys(t *testing.T) {
	r := NewResolver(testLogger())
	r.load = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		lo := applyOpts(optFns)
		if lo.SharedConfigProfile != "" {
			return aws.Config{Credentials: badCreds("profile not found")}, nil
		}
		if lo.Credentials != nil {
			return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
		}
		return aws.Config{Credentials: badCreds("no ambient credentials")}, nil
	}

	cfg, source, err := r.Resolve(context.Background(), Options{
		Profile:         "broken",
		AccessKeyID:     "AKIDEXPLICIT",
		SecretAccessKey: "SECRETEXPLICIT",
		Region:          "us-west-2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != SourceStaticKeys {
		t.Fatalf("expected static keys source, got %q", source)
	}
	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKIDEXPLICIT" {
		t.Fatalf("expected explicit key, got %q", creds.AccessKeyID)
	}
}

func TestResolve_FallsBackToDefaultChain(t *testing.T) {
	r := NewResolver(testLogger())
	r.load = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		lo := applyOpts(optFns)
		if lo.SharedConfigProfile == "" && lo.Credentials == nil {
			return aws.Config{Region: lo.Region, Credentials: goodCreds("EcsContainer")}, nil
		}
		return aws.Config{Credentials: badCreds("unavailable")}, nil
	}

	_, source, err := r.Resolve(context.Background(), Options{
		Profile: "broken",
		Region:  "us-east-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != SourceDefaultChain {
		t.Fatalf("expected default chain source, got %q", source)
	}
}

func TestResolve_AllSourcesFail(t *testing.T) {
	r := NewResolver(testLogger())
	r.load = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Credentials: badCreds("nope")}, nil
	}

	_, _, err := r.Resolve(context.Background(), Options{
		Profile:         "broken",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Region:          "us-east-1",
	})
	if err == nil {
		t.Fatal("expected error when every source fails")
	}
	var credErr *domain.CredentialsError
	if !errors.As(err, &credErr) {
		t.Fatalf("expected *domain.CredentialsError, got %T: %v", err, err)
	}
}
