package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trainload/internal/config"
	"trainload/internal/service"
	"trainload/internal/sport"
	"trainload/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: trainload <command> [args]

Commands:
  ingest <file.json>   ingest one activity record (with optional streams)
  rebuild              rebuild the load series for every sport
  dedup                scan history for duplicates and merge them
  efforts              re-extract best efforts from all stored activities
  stats                print the current series tail and best efforts
`)
}

func run() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if len(os.Args) < 2 {
		usage()
		return errors.New("missing command")
	}

	// Load configuration
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease review the config file at:\n  %s/config.json\n", configDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Open database
	dbPath, err := store.DefaultPath()
	if err != nil {
		return err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Optional metrics listener
	if cfg.Metrics.ListenAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
				slog.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	ctx := context.Background()
	engine := service.NewEngine(db, slog.Default(), cfg)

	switch os.Args[1] {
	case "ingest":
		if len(os.Args) < 3 {
			return errors.New("ingest requires a file argument")
		}
		return runIngest(ctx, engine, os.Args[2])
	case "rebuild":
		result, err := engine.BackfillLoadSeries(ctx, cfg.Athlete.ID)
		if err != nil {
			return err
		}
		printTally("rebuild", result)
		return nil
	case "dedup":
		result, err := engine.DedupScan(ctx, cfg.Athlete.ID)
		if err != nil {
			return err
		}
		printTally("dedup", result)
		return nil
	case "efforts":
		result, err := engine.BackfillBestEfforts(ctx, cfg.Athlete.ID)
		if err != nil {
			return err
		}
		printTally("efforts", result)
		return nil
	case "stats":
		return runStats(db, cfg.Athlete.ID)
	default:
		usage()
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

// ingestFile is the on-disk shape of an ingested record: the normalized
// activity plus its optional per-second streams.
type ingestFile struct {
	Activity struct {
		ID               string   `json:"id"`
		AthleteID        int64    `json:"athlete_id"`
		Name             string   `json:"name"`
		Sport            string   `json:"sport"`
		StartDate        string   `json:"start_date"` // RFC3339
		DurationSeconds  int      `json:"duration_seconds"`
		Distance         *float64 `json:"distance"`
		Source           string   `json:"source"`
		AverageHeartrate *float64 `json:"average_heartrate"`
	} `json:"activity"`
	Streams []struct {
		TimeOffset     int      `json:"time_offset"`
		Watts          *float64 `json:"watts"`
		VelocitySmooth *float64 `json:"velocity_smooth"`
		Heartrate      *int     `json:"heartrate"`
		Cadence        *int     `json:"cadence"`
		Altitude       *float64 `json:"altitude"`
		Lat            *float64 `json:"lat"`
		Lng            *float64 `json:"lng"`
		Distance       *float64 `json:"distance"`
	} `json:"streams"`
}

func runIngest(ctx context.Context, engine *service.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file ingestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	startDate, err := time.Parse(time.RFC3339, file.Activity.StartDate)
	if err != nil {
		return fmt.Errorf("parsing start_date %q: %w", file.Activity.StartDate, err)
	}

	activity := &store.Activity{
		ID:               file.Activity.ID,
		AthleteID:        file.Activity.AthleteID,
		Name:             file.Activity.Name,
		Sport:            file.Activity.Sport,
		StartDate:        startDate,
		DurationSeconds:  file.Activity.DurationSeconds,
		Distance:         file.Activity.Distance,
		Source:           file.Activity.Source,
		AverageHeartrate: file.Activity.AverageHeartrate,
	}

	streams := make([]store.StreamPoint, 0, len(file.Streams))
	for _, s := range file.Streams {
		streams = append(streams, store.StreamPoint{
			TimeOffset:     s.TimeOffset,
			Watts:          s.Watts,
			VelocitySmooth: s.VelocitySmooth,
			Heartrate:      s.Heartrate,
			Cadence:        s.Cadence,
			Altitude:       s.Altitude,
			Lat:            s.Lat,
			Lng:            s.Lng,
			Distance:       s.Distance,
		})
	}

	result, err := engine.IngestActivity(ctx, activity, streams)
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		fmt.Printf("Skipped: %v\n", vErr)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %s: %d duplicates merged, %d series points, %d best efforts improved\n",
		result.CanonicalID, result.DuplicatesRemoved, result.SeriesPointsWritten, result.EffortsImproved)
	return nil
}

func runStats(db *store.DB, athleteID int64) error {
	for _, s := range sport.All {
		series, err := db.GetSeries(athleteID, string(s))
		if err != nil {
			return err
		}
		if len(series) == 0 {
			continue
		}

		latest := series[len(series)-1]
		fmt.Printf("%s: %d days tracked, CTL %.1f, ATL %.1f, TSB %.1f\n",
			s, len(series), latest.CTL, latest.ATL, latest.TSB)

		efforts, err := db.ListBestEfforts(athleteID, string(s))
		if err != nil {
			return err
		}
		for _, be := range efforts {
			if sport.PaceBased(s) {
				fmt.Printf("  best %4ds: %6.1f s/km  (%s)\n", be.DurationSeconds, be.Value, be.AchievedAt.Format("2006-01-02"))
			} else {
				fmt.Printf("  best %4ds: %6.1f W     (%s)\n", be.DurationSeconds, be.Value, be.AchievedAt.Format("2006-01-02"))
			}
		}
	}
	return nil
}

func printTally(name string, result *service.BackfillResult) {
	fmt.Printf("%s: %d processed, %d failed\n", name, result.Processed, result.Failed)
	for _, err := range result.Errors {
		fmt.Printf("  %v\n", err)
	}
}
