package daemon

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/NordicHPC/sonar/util/formats/newfmt"
	"github.com/twmb/franz-go/pkg/kgo"

	. "slurmuse/common"
	"slurmuse/db"
)

const (
	kafkaGroup         = "slurmuse-ingest"
	kafkaRetryDelaySec = 60
)

// Start one consumer per cluster whose config names a Kafka broker.  The clusters are discovered
// from the cluster-config directory, so a cluster can be Kafka-fed before its data tree exists.

func startKafka(dc *DaemonCommand) {
	entries, err := os.ReadDir(db.MakeClusterConfigDirPath(dc.slurmuseDir))
	if err != nil {
		Log.Warningf("Kafka: can't scan cluster configs: %v", err)
		return
	}
	n := 0
	for _, e := range entries {
		clusterName, found := strings.CutSuffix(e.Name(), "-config.json")
		if !found || e.IsDir() {
			continue
		}
		cfg, err := GetConfig(db.MakeConfigFilePath(dc.slurmuseDir, clusterName))
		if err != nil {
			Log.Warningf("Kafka: can't read config for %s: %v", clusterName, err)
			continue
		}
		if cfg.KafkaBroker == "" {
			continue
		}
		store, err := db.Open(db.MakeClusterDataPath(dc.slurmuseDir, clusterName), cfg.DatabaseURL)
		if err != nil {
			Log.Warningf("Kafka: can't open store for %s: %v", clusterName, err)
			continue
		}
		// The store stays open for the life of the daemon.  The consumer is restarted if it
		// panics; transient broker trouble is handled inside the poll loop.
		go Forever("kafka/"+clusterName, func() {
			runKafka(cfg.KafkaBroker, clusterName, store, dc.Verbose)
		})
		n++
	}
	if dc.Verbose {
		Log.Infof("Kafka: consuming for %d cluster(s)", n)
	}
}

// This runs on a goroutine - one goroutine per cluster, just to be a little resilient.

func runKafka(kafkaBroker, cluster string, store db.Store, verbose bool) {
	topic := cluster + "." + string(newfmt.DataTagJobs)
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(kafkaBroker),
		kgo.ConsumerGroup(kafkaGroup),
		kgo.ConsumeTopics(topic),
	)
	if err != nil {
		// The broker could be down.  Returning hands control back to the restart loop; sleep
		// first so a dead broker doesn't cause a hot spin.
		Log.Warningf("%s: Failed to create client: %v", cluster, err)
		time.Sleep(kafkaRetryDelaySec * time.Second)
		return
	}
	defer cl.Close()
	if verbose {
		Log.Infof("%s: Connected!", cluster)
	}

	ctx := context.Background()
	for {
		if verbose {
			Log.Infof("%s: Fetching data", cluster)
		}
		fetches := cl.PollFetches(ctx)
		if errs := fetches.Errors(); len(errs) > 0 {
			// All errors are retried internally when fetching, but non-retriable errors are
			// returned from polls so that users can notice and take action.
			Log.Warningf("%s: SOFT ERROR: Failed to fetch data! %v", cluster, errs)
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			if record.Topic != topic {
				Log.Warningf("%s: No handler for topic: %s", cluster, record.Topic)
				continue
			}
			appended, dropped, err := db.IngestJobsJSON(store, record.Value)
			if err != nil {
				Log.Warningf("%s: SOFT ERROR: Topic handler %s failed: %v",
					cluster, record.Topic, err)
			} else if verbose {
				Log.Infof("%s: %s: %d appended, %d dropped",
					cluster, record.Topic, appended, dropped)
			}
		}
		if err := cl.CommitUncommittedOffsets(ctx); err != nil {
			Log.Warningf("%s: SOFT ERROR: Commit records failed: %v", cluster, err)
		}
	}
}
