package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grimm.is/allowsync/internal/brand"
	"grimm.is/allowsync/internal/config"
	"grimm.is/allowsync/internal/journal"
	"grimm.is/allowsync/internal/notification"
	"grimm.is/allowsync/internal/scheduler"
	"grimm.is/allowsync/internal/syncer"
)

const (
	// passTimeout bounds one scheduled pass. Sources and backends carry
	// their own shorter timeouts; this is the backstop.
	passTimeout = 10 * time.Minute

	shutdownTimeout = 5 * time.Second
)

// RunDaemon runs scheduled passes until terminated. The first pass runs
// at startup, then on the configured interval or cron cadence.
func RunDaemon(args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	configFile := fs.String("config", "", "Configuration file")
	jsonLog := fs.Bool("json-log", false, "Write logs as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, settings, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	if cfg.Daemon == nil {
		return fmt.Errorf("daemon mode requires a daemon block with interval or cron")
	}
	log := setupLogging(cfg, *jsonLog)

	schedule, err := buildSchedule(cfg.Daemon)
	if err != nil {
		return err
	}

	lockPath := settings.LockPath(cfg)
	if lockPath == "" {
		lockPath = filepath.Join(brand.RunDir(), brand.BinaryName+".lock")
	}
	release, err := acquireLock(lockPath)
	if err != nil {
		return err
	}
	defer release()

	s, err := syncer.New(cfg, log)
	if err != nil {
		return err
	}

	var store *journal.Store
	if cfg.Journal != nil {
		store, err = journal.NewStore(cfg.Journal.Path, cfg.Journal.RetentionDays)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
		s.SetJournal(store)
	}
	if cfg.Notifications != nil {
		s.SetNotifier(notification.NewDispatcher(cfg.Notifications, log))
	}

	sched := scheduler.New(log)
	syncTask := scheduler.NewSyncTask(schedule, passTimeout, func(ctx context.Context) error {
		report, err := s.Run(ctx, syncer.RunOptions{})
		if err != nil {
			return err
		}
		if report.Failed() {
			return fmt.Errorf("pass %s finished with failures", report.RunID)
		}
		return nil
	})
	if err := sched.AddTask(syncTask); err != nil {
		return err
	}
	if store != nil {
		if err := sched.AddTask(scheduler.NewJournalPruneTask(store.Prune)); err != nil {
			return err
		}
	}

	var server *http.Server
	if cfg.Daemon.Listen != "" {
		server = newStatusServer(cfg.Daemon.Listen, sched)
		go func() {
			log.Info("listener started", "addr", cfg.Daemon.Listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("listener failed", "error", err)
			}
		}()
	}

	sched.Start()
	log.Info("daemon started", "schedule", describeSchedule(cfg.Daemon), "lock", lockPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			// Config is immutable for the life of the process.
			log.Info("ignoring SIGHUP; restart to pick up config changes")
			continue
		}
		log.Info("shutting down", "signal", sig.String())
		break
	}

	sched.Stop()
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(ctx)
	}
	return nil
}

// buildSchedule turns the validated daemon block into a schedule. Cron
// expressions get their full parse here, at startup.
func buildSchedule(d *config.DaemonConfig) (scheduler.Schedule, error) {
	if d.Cron != "" {
		sched, err := scheduler.Cron(d.Cron)
		if err != nil {
			return nil, fmt.Errorf("daemon cron: %w", err)
		}
		return sched, nil
	}
	interval, err := time.ParseDuration(d.Interval)
	if err != nil {
		return nil, fmt.Errorf("daemon interval: %w", err)
	}
	return scheduler.Every(interval), nil
}

func describeSchedule(d *config.DaemonConfig) string {
	if d.Cron != "" {
		return "cron " + d.Cron
	}
	return "every " + d.Interval
}

func newStatusServer(addr string, sched *scheduler.Scheduler) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"version": brand.Version,
			"tasks":   sched.GetStatus(),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
