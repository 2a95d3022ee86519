package sheets

import (
	"context"

	"gagyebu/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	RecordExporter interface {
		// ExportRecords appends one row per record and returns the updated range.
		ExportRecords(ctx context.Context, year int, records []core.Record) (updatedRange string, err error)
	}

	OverviewExporter interface {
		ExportOverview(ctx context.Context, ov core.MonthOverview) (updatedRange string, err error)
	}

	Exporter interface {
		RecordExporter
		OverviewExporter
	}
)
