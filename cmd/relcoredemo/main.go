package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"relcore"
	"relcore/aggregation"
	"relcore/buffer"
	"relcore/catalog"
	"relcore/execution"
	"relcore/stats"
	"relcore/storage"
	"relcore/txn"
	"relcore/types"
)

func main() {
	log := logrus.WithField("component", "relcoredemo")
	cfg := relcore.DefaultConfig()

	path := "relcoredemo.table"
	desc := types.NewTupleDesc(
		types.FieldDesc{Type: types.IntType, Name: "id"},
		types.FieldDesc{Type: types.StringType, Name: "group"},
	)

	hf, err := storage.Open(path, desc)
	if err != nil {
		log.WithError(err).Fatal("open table")
	}
	defer os.Remove(path)
	defer hf.Close()

	cat := catalog.NewInMemory()
	cat.AddTable(hf, "widgets")
	pool := buffer.NewWithLockTiming(cfg.BufferPoolSize, cat, cfg.LockPollInterval, cfg.LockMaxAttempts)

	tid := txn.New()
	rows := []struct {
		id    int32
		group string
	}{
		{1, "A"}, {2, "A"}, {3, "B"},
	}
	for _, r := range rows {
		t := types.NewTuple(desc)
		_ = t.SetField(0, types.IntField{Value: r.id})
		_ = t.SetField(1, types.StringField{Value: r.group})
		if err := pool.InsertTuple(tid, hf.ID(), t); err != nil {
			log.WithError(err).Fatal("insert")
		}
	}
	if err := pool.TransactionComplete(tid, true); err != nil {
		log.WithError(err).Fatal("commit")
	}
	log.Info("inserted 3 rows")

	scanTid := txn.New()
	scan, err := execution.NewSeqScan(scanTid, hf.ID(), pool, cat, nil)
	if err != nil {
		log.WithError(err).Fatal("build scan")
	}
	agg, err := execution.NewAggregate(scan, 0, 1, aggregation.Count)
	if err != nil {
		log.WithError(err).Fatal("build aggregate")
	}
	if err := agg.Open(); err != nil {
		log.WithError(err).Fatal("open aggregate")
	}
	for {
		has, err := agg.HasNext()
		if err != nil {
			log.WithError(err).Fatal("aggregate hasNext")
		}
		if !has {
			break
		}
		t, err := agg.Next()
		if err != nil {
			log.WithError(err).Fatal("aggregate next")
		}
		log.Infof("group count: %s", t.String())
	}
	agg.Close()
	pool.TransactionComplete(scanTid, true)

	ts, err := stats.ComputeTableStats(hf.ID(), pool, cat)
	if err != nil {
		log.WithError(err).Fatal("compute stats")
	}
	sel := ts.EstimateSelectivity(0, types.GreaterThan, types.IntField{Value: 1})
	log.Infof("P(id > 1) ~= %.2f, estimated cardinality ~= %d", sel, ts.EstimateTableCardinality(sel))
}
