package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/stowsched/pkg/analytics"
	"github.com/cuemby/stowsched/pkg/cluster"
	"github.com/cuemby/stowsched/pkg/config"
	"github.com/cuemby/stowsched/pkg/events"
	"github.com/cuemby/stowsched/pkg/historystore"
	"github.com/cuemby/stowsched/pkg/jobqueue"
	"github.com/cuemby/stowsched/pkg/lock"
	"github.com/cuemby/stowsched/pkg/log"
	"github.com/cuemby/stowsched/pkg/metrics"
	"github.com/cuemby/stowsched/pkg/scheduler"
	"github.com/cuemby/stowsched/pkg/starters"
	"github.com/cuemby/stowsched/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "stowsched",
	Short:   "stowsched - storage-balancer job scheduler",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("stowsched version %s\ncommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("config", "", "path to the YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)

	historyCmd.AddCommand(historySyncCmd)
	configCmd.AddCommand(configShowCmd)

	runCmd.Flags().String("node-id", "scheduler-1", "unique node id for the lease-table Raft group")
	runCmd.Flags().String("raft-bind-addr", "127.0.0.1:7950", "address the lease-table Raft group listens on")
	runCmd.Flags().Bool("bootstrap", true, "bootstrap a new single-node lease-table Raft cluster")
	runCmd.Flags().Bool("single-node", true, "run with an in-process lock instead of Raft (development mode)")
	runCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "address the /metrics and /health endpoints listen on")
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the scheduler's periodic starters until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		history, err := historystore.Open(cfg.MetadataSchedulerDB)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer history.Close()

		singleNode, _ := cmd.Flags().GetBool("single-node")
		var locker lock.Locker
		if singleNode {
			locker = lock.NewMemLocker()
		} else {
			nodeID, _ := cmd.Flags().GetString("node-id")
			bindAddr, _ := cmd.Flags().GetString("raft-bind-addr")
			bootstrap, _ := cmd.Flags().GetBool("bootstrap")
			raftLocker, err := lock.NewRaftLocker(lock.RaftConfig{
				NodeID: nodeID, BindAddr: bindAddr, DataDir: cfg.MetadataSchedulerDB, Bootstrap: bootstrap,
			})
			if err != nil {
				return fmt.Errorf("start raft locker: %w", err)
			}
			defer raftLocker.Shutdown()
			locker = raftLocker
		}

		processor := jobqueue.NewMemProcessor(locker)
		registry := jobqueue.NewRegistry()

		priorities := jobqueue.JobPriorities
		resLimits := make(map[types.JobType]map[types.ResourceType]int, len(cfg.Jobs))
		for jt, jc := range cfg.Jobs {
			resLimits[jt] = jc.ResourcesLimits
		}
		sched := scheduler.New(processor, registry, history, priorities, resLimits)

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()
		sched.SetEvents(broker)

		auditLog := broker.Subscribe()
		go func() {
			for evt := range auditLog {
				log.WithComponent("events").Info().
					Str("type", string(evt.Type)).
					Str("job_type", evt.JobType).
					Str("job_id", evt.JobID).
					Msg(evt.Message)
			}
		}()

		// Collecting live cluster state from elliptics/metadata is out of
		// scope; snapshot() stands in for that integration point.
		snapshot := func() *cluster.Snapshot { return cluster.NewSnapshot(nil, nil, nil) }

		registry.Register(types.JobTypeRecoverDC, starters.RecoverDCReporter(snapshot()))
		registry.Register(types.JobTypeCoupleDefrag, starters.CoupleDefragReporter(snapshot()))
		registry.Register(types.JobTypeMove, starters.MoveReporter(snapshot()))
		registry.Register(types.JobTypeTTLCleanup, starters.TTLCleanupReporter(snapshot()))

		queue := scheduler.NewTimedQueue()
		queue.Start()
		defer queue.Stop()

		analyticsClient := analytics.NewFakeClient()

		wireStarters(queue, locker, sched, history, analyticsClient, cfg, snapshot)

		metrics.SetVersion(Version)
		metrics.RegisterComponent("scheduler", true, "running")

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.Handle("/health", metrics.HealthHandler())
			mux.Handle("/ready", metrics.ReadyHandler())
			mux.Handle("/live", metrics.LivenessHandler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.WithComponent("cmd").Error().Err(err).Msg("metrics server error")
			}
		}()
		fmt.Printf("stowsched running, metrics at http://%s/metrics\n", metricsAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		fmt.Println("shutting down...")
		return nil
	},
}

// wireStarters registers every starter with RegisterPeriodicFunc using
// the config tree's per-starter enabled/period/autoapprove block.
func wireStarters(queue *scheduler.TimedQueue, locker lock.Locker, sched *scheduler.Scheduler, history *historystore.Store, analyticsClient analytics.Client, cfg *config.Config, snapshot func() *cluster.Snapshot) {
	scheduler.RegisterPeriodicFunc(queue, locker, "recover_dc", "", scheduler.LoadStarterConfig(cfg.Scheduler.RecoverDC), func() {
		snap := snapshot()
		hist, err := history.GetHistory(snap, nowUnix())
		if err != nil {
			log.WithComponent("cmd").Error().Err(err).Msg("recover_dc: get_history failed")
			return
		}
		rcfg := starters.RecoverDCConfig(cfg.Scheduler.RecoverDCTunables)
		candidates := starters.RunRecoverDC(snap, hist, rcfg, nowUnix(), cfg.Scheduler.RecoverDC.MaxExecuting)
		sched.CreateJobs(types.JobTypeRecoverDC, candidates, scheduler.Params{
			MaxExecutingJobs: cfg.Scheduler.RecoverDC.MaxExecuting,
			Autoapprove:      cfg.Scheduler.RecoverDC.Autoapprove,
		})
	})

	scheduler.RegisterPeriodicFunc(queue, locker, "couple_defrag", "", scheduler.LoadStarterConfig(cfg.Scheduler.CoupleDefrag), func() {
		snap := snapshot()
		candidates := starters.RunCoupleDefrag(snap)
		// RunCoupleDefrag returns candidates ascending by files_removed_size;
		// submit them tail first so the largest gains are admitted first.
		for i, k := 0, len(candidates)-1; i < k; i, k = i+1, k-1 {
			candidates[i], candidates[k] = candidates[k], candidates[i]
		}
		sched.CreateJobs(types.JobTypeCoupleDefrag, candidates, scheduler.Params{
			MaxExecutingJobs: cfg.Scheduler.CoupleDefrag.MaxExecuting,
			Autoapprove:      cfg.Scheduler.CoupleDefrag.Autoapprove,
		})
	})

	scheduler.RegisterPeriodicFunc(queue, locker, "move", "", scheduler.LoadStarterConfig(cfg.Scheduler.Move), func() {
		snap := snapshot()
		mcfg := starters.MoveConfig(cfg.Scheduler.MoveTunables)
		candidates := starters.RunMove(snap, sched, mcfg)
		sched.CreateJobs(types.JobTypeMove, candidates, scheduler.Params{
			MaxExecutingJobs: cfg.Scheduler.Move.MaxExecuting,
			Autoapprove:      cfg.Scheduler.Move.Autoapprove,
		})
	})

	scheduler.RegisterPeriodicFunc(queue, locker, "ttl_cleanup", "", scheduler.LoadStarterConfig(cfg.Scheduler.TTLCleanup), func() {
		snap := snapshot()
		hist, err := history.GetHistory(snap, nowUnix())
		if err != nil {
			log.WithComponent("cmd").Error().Err(err).Msg("ttl_cleanup: get_history failed")
			return
		}
		tcfg := starters.TTLCleanupConfig{
			AggregationTable: cfg.Scheduler.TTLCleanupTunables.AggregationTable,
			SourceTable:      cfg.Scheduler.TTLCleanupTunables.TSKVLogTable,
			TTLThreshold:     cfg.Scheduler.TTLCleanupTunables.TTLThreshold,
			MaxIdleDays:      cfg.TTLCleanupJob.MaxIdleDays,
			BatchSize:        cfg.TTLCleanupJob.BatchSize,
			Attempts:         cfg.TTLCleanupJob.Attempts,
			Nproc:            cfg.TTLCleanupJob.Nproc,
			WaitTimeoutSecs:  int(cfg.TTLCleanupJob.WaitTimeout.Seconds()),
		}
		candidates, err := starters.RunTTLCleanup(context.Background(), snap, hist, analyticsClient, tcfg, today(), yesterday(), nowUnix())
		if err != nil {
			log.WithComponent("cmd").Error().Err(err).Msg("ttl_cleanup: candidate generation failed")
			return
		}
		sched.CreateJobs(types.JobTypeTTLCleanup, candidates, scheduler.Params{
			MaxExecutingJobs: cfg.Scheduler.TTLCleanup.MaxExecuting,
			Autoapprove:      cfg.Scheduler.TTLCleanup.Autoapprove,
		})
	})
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "inspect or resync the historic-state store",
}

var historySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "resync the historic-state cache against the live cluster view",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := historystore.Open(cfg.MetadataSchedulerDB)
		if err != nil {
			return err
		}
		defer store.Close()

		snap := cluster.NewSnapshot(nil, nil, nil)
		if err := store.Sync(snap, nowUnix()); err != nil {
			return fmt.Errorf("sync history: %w", err)
		}
		fmt.Println("history store resynced")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "inspect the effective scheduler configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func nowUnix() int64 {
	return time.Now().Unix()
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func yesterday() string {
	return time.Now().AddDate(0, 0, -1).Format("2006-01-02")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print health and readiness status",
	RunE: func(cmd *cobra.Command, args []string) error {
		health := metrics.GetHealth()
		out, err := yaml.Marshal(health)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}
