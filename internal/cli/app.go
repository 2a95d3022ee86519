package cli

import (
	"context"
	"fmt"

	"gagyebu/internal/backend"
	"gagyebu/internal/config"
	"gagyebu/internal/log"
	"gagyebu/internal/services"
	"gagyebu/internal/sheets"
	gsheet "gagyebu/internal/sheets/google"
	"gagyebu/internal/store"
)

// App is the wired ledger: storage backend, record store and services.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Backend  *backend.BackendResult
	Store    *store.Store
	Records  *services.RecordService
	Applier  *services.RecurringApplier
	exporter sheets.Exporter
}

// Bootstrap opens the configured backend and loads the ledger from it.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	opts := []store.Option{
		store.WithKeys(store.Keys{Records: cfg.Keys.Records, Recurring: cfg.Keys.Recurring}),
		store.WithLogger(logger),
	}
	if res.Notifier != nil {
		opts = append(opts, store.WithNotifier(res.Notifier))
	}
	st := store.New(ctx, res.Store, opts...)

	records := services.NewRecordService(st, registry, logger)
	records.SetTopCategories(cfg.Summary.TopCategories)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: res,
		Store:   st,
		Records: records,
		Applier: services.NewRecurringApplier(st, logger),
	}, nil
}

// Exporter returns the Google Sheets exporter, creating it on first use.
func (a *App) Exporter(ctx context.Context) (sheets.Exporter, error) {
	if a.exporter != nil {
		return a.exporter, nil
	}
	sc := a.Config.Sheets
	if sc.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets export is not configured: set sheets.spreadsheet_id")
	}
	exp, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   sc.SpreadsheetID,
		RecordsSheet:    sc.RecordsSheet,
		OverviewSheet:   sc.OverviewSheet,
		CredentialsJSON: sc.CredentialsJSON,
		CredentialsFile: sc.CredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	a.exporter = exp
	return exp, nil
}

// Close releases the backend.
func (a *App) Close() error {
	return a.Backend.Close()
}
