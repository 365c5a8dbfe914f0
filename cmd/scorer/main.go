// Command scorer scores swim meet and dryland result files against point
// tables and prints the ranked results as JSON.
//
//	scorer [-tables point_tables.yaml] [-persist] results.csv meet.yaml bundle.zip
//
// Settings come from the environment (and a .env file); see internal/config.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/swimscore/internal/config"
	"github.com/JonMunkholm/swimscore/internal/core"
	"github.com/JonMunkholm/swimscore/internal/ingest"
	"github.com/JonMunkholm/swimscore/internal/logging"
	"github.com/JonMunkholm/swimscore/internal/metrics"
	"github.com/JonMunkholm/swimscore/internal/scoring"
	"github.com/JonMunkholm/swimscore/internal/store"
)

const drainTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	tablesPath := flag.String("tables", "", "point table file (overrides SCORING_TABLES_PATH)")
	persist := flag.Bool("persist", false, "store results in the database (overrides DB_PERSIST)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 2
	}
	if *tablesPath != "" {
		cfg.Scoring.TablesPath = *tablesPath
	}
	if *persist {
		cfg.Database.Persist = true
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, core.FormatUserError(ingest.ErrNoFiles))
		flag.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, err := scoring.LoadFile(cfg.Scoring.TablesPath)
	if err != nil {
		slog.Error("failed to load point tables", "path", cfg.Scoring.TablesPath, "error", err)
		return 1
	}
	slog.Info("point tables loaded", "path", cfg.Scoring.TablesPath, "curves", tables.Len(), "ages", tables.Ages())

	var m *metrics.Manager
	if cfg.Metrics.Enabled {
		m = metrics.NewManager()
		srv := serveMetrics(cfg.Metrics.Addr, m)
		defer shutdown(srv)
	}
	engine := newEngine(cfg, tables, m)
	slog.Info("scoring engine ready", "policy", engine.Policy().String(), "penalty_per_unit", cfg.Scoring.PenaltyPerUnit)

	var (
		st   ingest.Store
		recs fileRecords
	)
	if cfg.Database.Persist {
		s, err := store.Open(ctx, store.Driver(strings.ToLower(cfg.Database.Driver)), cfg.Database.URL)
		if err != nil {
			slog.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
			return 1
		}
		defer s.Close()
		s.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		st, recs = s, s
		slog.Info("persisting results", "driver", cfg.Database.Driver)
	}

	svc := ingest.NewService(cfg, engine, st, m)
	batch, err := svc.ProcessFiles(ctx, flag.Args())

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if derr := svc.WaitForDrain(drainCtx); derr != nil {
		slog.Warn("files did not finish in time", "error", derr, "limiter", svc.Limiter().Status())
	}

	if batch == nil {
		slog.Error("processing failed", "error", err)
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		return 1
	}
	if err := writeReport(context.WithoutCancel(ctx), os.Stdout, batch, recs); err != nil {
		slog.Error("failed to write output", "error", err)
		return 1
	}

	if err != nil || len(batch.Failed()) > 0 {
		for _, f := range batch.Failed() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", f.Name, core.FormatUserError(f.Err))
		}
		return 1
	}
	return 0
}

func newEngine(cfg *config.Config, tables *scoring.Tables, m *metrics.Manager) *scoring.Engine {
	// Validate has already rejected unknown policies.
	policy, _ := scoring.ParsePolicy(cfg.Scoring.BoundaryPolicy)
	return scoring.New(tables,
		scoring.WithPolicy(policy),
		scoring.WithPenaltyPerUnit(cfg.Scoring.PenaltyPerUnit),
		scoring.WithLogger(slog.Default()),
		scoring.WithMissObserver(m.RecordLookupMiss),
	)
}

func serveMetrics(addr string, m *metrics.Manager) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("metrics server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("metrics shutdown error", "error", err)
	}
}

// Report is the JSON document printed to stdout.
type Report struct {
	Files    []FileReport  `json:"files"`
	Combined []EventReport `json:"combined"`
}

type FileReport struct {
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	RunID     string          `json:"run_id"`
	MeetID    string          `json:"meet_id,omitempty"`
	Events    []EventReport   `json:"events,omitempty"`
	RowErrors []core.RowError `json:"row_errors,omitempty"`
	Error     *ErrorReport    `json:"error,omitempty"`
}

type EventReport struct {
	Event   string              `json:"event"`
	Results []core.ResultRecord `json:"results"`
}

type ErrorReport struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action"`
	Detail  string `json:"detail"`
}

func eventReports(out *core.Output) []EventReport {
	if out == nil {
		return nil
	}
	records := out.Records()
	events := make([]EventReport, 0, len(out.Groups))
	for _, label := range out.Labels() {
		events = append(events, EventReport{Event: label, Results: records[label]})
	}
	return events
}

// fileRecords reads back the status record written for each file.
type fileRecords interface {
	GetFile(ctx context.Context, id string) (store.FileRecord, error)
}

// writeReport encodes b as JSON. When recs is set, each file is annotated
// with the meet its results were stored under.
func writeReport(ctx context.Context, w io.Writer, b *ingest.Batch, recs fileRecords) error {
	r := Report{Combined: eventReports(b.Combined)}
	for _, f := range b.Files {
		fr := FileReport{Name: f.Name, Kind: f.Kind, RunID: f.RunID}
		if recs != nil {
			rec, err := recs.GetFile(ctx, f.RunID)
			if err != nil {
				slog.Warn("file record not found", "file", f.Name, "run_id", f.RunID, "error", err)
			} else {
				fr.MeetID = rec.MeetID
			}
		}
		if ue := core.NewUserError(f.Err); ue != nil {
			fr.Error = &ErrorReport{
				Code:    ue.User.Code,
				Message: ue.User.Message,
				Action:  ue.User.Action,
				Detail:  ue.Technical.Error(),
			}
		} else {
			fr.Events = eventReports(f.Output)
			fr.RowErrors = f.Output.RowErrors
		}
		r.Files = append(r.Files, fr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
