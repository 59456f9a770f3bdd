package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/face"
	"github.com/viant/lookalike/face/remote"
	"github.com/viant/lookalike/source"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Extract one face embedding per entity image and persist the store.",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	flags := indexCmd.Flags()
	flags.String("dir", "", "directory of entity images, one file per entity")
	flags.String("bucket", "", "S3 bucket of entity images")
	flags.String("prefix", "", "object prefix within --bucket")
	flags.String("endpoint", "http://localhost:8500", "face service endpoint")
	flags.Int("concurrency", 4, "number of images processed in parallel")
	flags.String("multi-face", "skip", "images with several faces: skip or largest")
	flags.String("codec", "zstd", "snapshot compression: none, lz4 or zstd")

	bindFlag("source.dir", flags.Lookup("dir"))
	bindFlag("source.bucket", flags.Lookup("bucket"))
	bindFlag("source.prefix", flags.Lookup("prefix"))
	bindFlag("extractor.endpoint", flags.Lookup("endpoint"))
	bindFlag("build.concurrency", flags.Lookup("concurrency"))
	bindFlag("extractor.policy", flags.Lookup("multi-face"))
	bindFlag("store.codec", flags.Lookup("codec"))
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	entities, err := loadEntities(ctx)
	if err != nil {
		return err
	}
	client, err := remote.New(cfg.Extractor.Remote(), remote.WithLogger(logger))
	if err != nil {
		return err
	}
	policy, err := face.ParsePolicy(cfg.Extractor.Policy)
	if err != nil {
		return err
	}
	extractor, err := face.NewExtractor(client, nil, face.WithPolicy(policy))
	if err != nil {
		return err
	}

	crops := face.NewCrops()
	store, report, err := embedding.Build(ctx, entities, extractor,
		embedding.WithConcurrency(cfg.Build.Concurrency),
		embedding.WithExtractTimeout(cfg.Build.ExtractTimeout),
		embedding.WithLogger(logger),
		embedding.WithCrops(crops),
	)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		return errors.New("no embeddings extracted")
	}
	return saveStore(ctx, store, crops)
}

func loadEntities(ctx context.Context) ([]source.Entity, error) {
	switch {
	case cfg.Source.Dir != "" && cfg.Source.Bucket != "":
		return nil, errors.New("set either --dir or --bucket, not both")
	case cfg.Source.Dir != "":
		return source.Dir(cfg.Source.Dir)
	case cfg.Source.Bucket != "":
		client, err := source.NewClient(cfg.Source.Endpoint, cfg.Source.AccessKey, cfg.Source.SecretKey, cfg.Source.Secure)
		if err != nil {
			return nil, err
		}
		return source.Bucket(ctx, client, cfg.Source.Bucket, cfg.Source.Prefix)
	}
	return nil, errors.New("no image source: set --dir or --bucket")
}

func printReport(cmd *cobra.Command, report *embedding.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "build %s: indexed %d, replaced %d, skipped %d in %s\n",
		report.BuildID, len(report.Indexed), len(report.Replaced), len(report.Skipped), report.Duration.Round(time.Millisecond))
	for _, s := range report.Skipped {
		fmt.Fprintf(out, "  skipped %s: %s\n", s.ID, s.Reason)
	}
}
