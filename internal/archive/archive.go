// Package archive cold-archives table files that have been superseded or
// verified-and-shelved to Glacier, the supplemental feature named in
// spec.md's original_source for tables that are no longer part of the
// active lookup set but are worth keeping.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/glacier"
	glaciertypes "github.com/aws/aws-sdk-go-v2/service/glacier/types"
	"github.com/aws/smithy-go"
	"github.com/tmto-labs/rainbowforge/internal/tablehash"
)

// Config holds the Glacier vault connection settings.
type Config struct {
	Region          string
	Vault           string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Archiver uploads table files to a Glacier vault for cold storage.
type Archiver struct {
	client *glacier.Client
	vault  string
}

// New builds an Archiver from cfg.
func New(ctx context.Context, cfg Config) (*Archiver, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)),
	)
	if err != nil {
		return nil, fmt.Errorf("archive: loading AWS config: %w", err)
	}
	return &Archiver{client: glacier.NewFromConfig(awsCfg), vault: cfg.Vault}, nil
}

// ArchiveTable uploads the table file at path as a single Glacier
// archive, returning the archive ID and a SHA-256 digest of the uploaded
// bytes, so a later retrieval can be checked against the same digest
// before the table is trusted again.
func (a *Archiver) ArchiveTable(ctx context.Context, path, description string) (archiveID, sha256sum string, err error) {
	sha256sum, err = tablehash.SHA256File(path)
	if err != nil {
		return "", "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("archive: opening %q: %w", path, err)
	}
	defer f.Close()

	result, err := a.client.UploadArchive(ctx, &glacier.UploadArchiveInput{
		AccountId:          aws.String("-"),
		VaultName:          aws.String(a.vault),
		ArchiveDescription: aws.String(fmt.Sprintf("%s sha256:%s", description, sha256sum)),
		Body:               f,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", "", fmt.Errorf("archive: uploading %q: %s: %s", path, apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return "", "", fmt.Errorf("archive: uploading %q: %w", path, err)
	}
	return aws.ToString(result.ArchiveId), sha256sum, nil
}

// InitiateRetrieval starts an archive-retrieval job for a previously
// archived table, returning the job ID to poll.
func (a *Archiver) InitiateRetrieval(ctx context.Context, archiveID, description string) (string, error) {
	result, err := a.client.InitiateJob(ctx, &glacier.InitiateJobInput{
		AccountId: aws.String("-"),
		VaultName: aws.String(a.vault),
		JobParameters: &glaciertypes.JobParameters{
			Type:        aws.String("archive-retrieval"),
			ArchiveId:   aws.String(archiveID),
			Description: aws.String(description),
			Tier:        aws.String("Standard"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive: initiating retrieval of %q: %w", archiveID, err)
	}
	return aws.ToString(result.JobId), nil
}
