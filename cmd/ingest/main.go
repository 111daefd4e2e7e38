// Command ingest runs a folder of event screenshots through the pipeline
// without the HTTP service and prints the upload summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	app "github.com/okian/rollcall/internal/app"
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
)

var imageExts = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff"}

var errUsage = errors.New("usage")

type options struct {
	dir       string
	eventName string
	eventType string
	eventDate string
	sessionID string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Stderr.WriteString("ingest: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.StringVar(&o.dir, "dir", "", "Directory of screenshots to process")
	fs.StringVar(&o.eventName, "event", "", "Event name")
	fs.StringVar(&o.eventType, "type", "", "Event type")
	fs.StringVar(&o.eventDate, "date", time.Now().UTC().Format(time.DateOnly), "Event date (YYYY-MM-DD)")
	fs.StringVar(&o.sessionID, "session", "", "Session id (generated when empty)")
	if err := fs.Parse(args); err != nil {
		return o, errUsage
	}
	if o.dir == "" || o.eventName == "" {
		fs.Usage()
		return o, errUsage
	}
	return o, nil
}

func run(args []string, out io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.InitWith(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	log := logger.Get()

	up, err := buildUpload(o)
	if err != nil {
		return err
	}

	svc := app.New(cfg, app.WithLogger(log.Named("service")))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	res, err := svc.Process(ctx, up)
	if err != nil {
		return err
	}
	log.Info(ctx, "upload processed",
		logger.String("session_id", res.SessionID),
		logger.Int("images", res.ImagesProcessed),
		logger.Int("matched", len(res.Matched)),
		logger.Int("unmatched", len(res.Unmatched)),
		logger.String("ledger", res.Ledger.String()))

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Summary())
}

// buildUpload reads every image in o.dir, in name order.
func buildUpload(o options) (model.Upload, error) {
	date, err := time.Parse(time.DateOnly, o.eventDate)
	if err != nil {
		return model.Upload{}, fmt.Errorf("invalid -date %q: %w", o.eventDate, err)
	}
	paths, err := collectImages(o.dir)
	if err != nil {
		return model.Upload{}, err
	}
	up := model.Upload{
		SessionID: o.sessionID,
		EventName: o.eventName,
		EventType: o.eventType,
		EventDate: date,
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return model.Upload{}, fmt.Errorf("read %s: %w", p, err)
		}
		up.Images = append(up.Images, model.Image{Name: filepath.Base(p), Data: data})
	}
	return up, nil
}

func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", model.ErrNoImages, dir)
	}
	return paths, nil
}
