package stores

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"doodle-server/core"
	"doodle-server/stores/aws"
	"doodle-server/stores/filesystem"
	"doodle-server/stores/memory"
	"doodle-server/stores/sqlite"
)

// Config selects the artifact store.
type Config struct {
	Type           string `yaml:"type"`
	LocalPath      string `yaml:"localPath"`
	DataSourceName string `yaml:"dataSourceName"`
	BucketName     string `yaml:"bucketName"`
}

func GetStore(ctx context.Context, cfg Config) (core.ArtifactStore, error) {
	var (
		store core.ArtifactStore
		err   error
	)
	storageField := logrus.Fields{
		"storageType": cfg.Type,
	}

	switch cfg.Type {
	case "filesystem":
		basePath := cfg.LocalPath
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		store, err = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := cfg.DataSourceName
		if dataSourceName == "" {
			dataSourceName = "doodle.db"
		}
		storageField["dataSourceName"] = dataSourceName
		store, err = sqlite.NewStore(ctx, dataSourceName)
	case "s3":
		if cfg.BucketName == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.BucketName
		store, err = aws.NewStore(ctx, cfg.BucketName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Type, err)
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store, nil
}
