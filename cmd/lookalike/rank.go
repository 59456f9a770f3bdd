package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/viant/lookalike/rank"
	"github.com/viant/lookalike/render"
	"github.com/viant/lookalike/session"
	"github.com/viant/lookalike/sqlstore"
)

var rankCmd = &cobra.Command{
	Use:   "rank ID",
	Short: "Print the entities whose faces are closest to ID.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRank,
}

func init() {
	flags := rankCmd.Flags()
	flags.Int("k", 3, "number of lookalikes")
	flags.String("policy", "clamp", "k above the candidate count: clamp or strict")
	flags.String("metric", "l2", "distance: l2 or cosine")
	flags.String("index", "", "kNN index: auto, brute, vptree or cover; empty scans the store")
	flags.String("format", "text", "output: text, json or an image extension (png, jpg) for a contact sheet")
	flags.StringP("out", "o", "", "output file; defaults to stdout")
	flags.Bool("sql", false, "rank inside SQLite, requires --dsn")

	bindFlag("rank.k", flags.Lookup("k"))
	bindFlag("rank.policy", flags.Lookup("policy"))
	bindFlag("rank.metric", flags.Lookup("metric"))
	bindFlag("rank.index", flags.Lookup("index"))
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")
	useSQL, _ := cmd.Flags().GetBool("sql")

	if err := checkFormat(format); err != nil {
		return err
	}
	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	renderer := newRenderer(format, out)

	var ranker session.Ranker
	if useSQL {
		if cfg.Store.DSN == "" {
			return fmt.Errorf("--sql requires --dsn")
		}
		db, store, err := openSQL(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		policy, err := rank.ParsePolicy(cfg.Rank.Policy)
		if err != nil {
			return err
		}
		ranker = &sqlRanker{ctx: ctx, store: store, policy: policy}
	} else {
		store, err := loadStore(ctx)
		if err != nil {
			return err
		}
		opts, err := cfg.Rank.Options()
		if err != nil {
			return err
		}
		if ranker, err = rank.NewRanker(store, append(opts, rank.WithLogger(logger))...); err != nil {
			return err
		}
	}

	crops, err := loadCrops()
	if err != nil {
		return err
	}
	var cropSource session.CropSource
	if crops != nil {
		cropSource = crops
	}
	sess, err := session.New(ranker, cropSource, renderer, session.WithLogger(logger))
	if err != nil {
		return err
	}
	_, err = sess.Query(ctx, args[0], cfg.Rank.K)
	return err
}

// checkFormat rejects formats newRenderer cannot serve.
func checkFormat(format string) error {
	switch format {
	case "", "text", "json":
		return nil
	}
	if _, err := imaging.FormatFromExtension(format); err != nil {
		return fmt.Errorf("unknown --format %q: want text, json or an image extension", format)
	}
	return nil
}

func newRenderer(format string, w io.Writer) session.Renderer {
	switch format {
	case "", "text":
		return &render.Text{W: w}
	case "json":
		return &render.JSON{W: w}
	}
	return &render.Sheet{W: w, Format: format}
}

// sqlRanker ranks with the vec_l2 SQL function instead of an in-memory scan.
type sqlRanker struct {
	ctx    context.Context
	store  *sqlstore.Store
	policy rank.Policy
}

func (r *sqlRanker) Rank(queryID string, k int) (*rank.Result, error) {
	return r.store.Nearest(r.ctx, queryID, k, r.policy)
}
