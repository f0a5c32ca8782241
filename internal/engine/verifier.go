package engine

import (
	"context"
	"fmt"
	"strings"

	"db-move/internal/migerr"
	"db-move/internal/schema"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// VerifyResult compares source and target row counts of one table.
type VerifyResult struct {
	Table       string
	SourceCount int64
	TargetCount int64
	Matched     bool
	Err         error
}

func (v VerifyResult) String() string {
	if v.Err != nil {
		return fmt.Sprintf("%s: error: %v", v.Table, v.Err)
	}
	mark := "OK"
	if !v.Matched {
		mark = "MISMATCH"
	}
	return fmt.Sprintf("%s: %d -> %d %s", v.Table, v.SourceCount, v.TargetCount, mark)
}

// Verifier compares row counts between source and target. It only reads.
type Verifier struct {
	source *schema.Catalog
	target *schema.Catalog
	log    *logrus.Entry
}

func NewVerifier(source, target *schema.Catalog) *Verifier {
	return &Verifier{source: source, target: target, log: logrus.WithField("component", "verifier")}
}

// Verify counts each table on both sides. Failures are reported per table
// and never stop the remaining tables.
func (v *Verifier) Verify(ctx context.Context, tables []schema.Table) []VerifyResult {
	targets := make(map[string]schema.Table)
	list, err := v.target.ListTables(ctx, nil)
	if err != nil {
		v.log.WithError(err).Warn("Failed to list target tables; counting under source names")
	}
	for _, t := range list {
		targets[strings.ToLower(t.Name)] = t
	}

	results := make([]VerifyResult, 0, len(tables))
	for _, t := range tables {
		tt, ok := targets[strings.ToLower(t.Name)]
		if !ok {
			tt = schema.Table{Schema: v.target.Schema(), Name: t.Name}
		}
		results = append(results, v.verifyTable(ctx, t, tt))
	}
	return results
}

func (v *Verifier) verifyTable(ctx context.Context, src, dst schema.Table) VerifyResult {
	res := VerifyResult{Table: src.Name}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := v.source.CountRows(gctx, src)
		res.SourceCount = n
		return err
	})
	g.Go(func() error {
		n, err := v.target.CountRows(gctx, dst)
		res.TargetCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		res.Err = &migerr.Error{Kind: migerr.Verify, Table: src.Name, Op: "verify", Err: err}
		return res
	}
	res.Matched = res.SourceCount == res.TargetCount
	return res
}
