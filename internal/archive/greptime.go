package archive

import (
	"context"
	"log/slog"

	"dronewatch/internal/telemetry"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// GreptimeWriter archives live telemetry to GreptimeDB via the ingester
// client.
type GreptimeWriter struct {
	client greptime.Client
	db     string
	table  string
	logger *slog.Logger
}

// NewGreptimeWriter connects to GreptimeDB and auto-creates the archive table
// if needed.
func NewGreptimeWriter(endpoint, database string, logger *slog.Logger) (*GreptimeWriter, error) {
	ctx := ingesterContext.NewContext(context.Background())
	client, err := greptime.NewClient(ctx, &greptime.Config{
		Endpoint: endpoint,
	})
	if err != nil {
		return nil, err
	}

	ddl := `
CREATE TABLE IF NOT EXISTS ` + telemetry.ArchiveTableName + ` (
  cluster_id STRING TAG,
  drone_id STRING TAG,
  lat DOUBLE,
  lon DOUBLE,
  alt_msl DOUBLE,
  alt_agl DOUBLE,
  heading DOUBLE,
  speed DOUBLE,
  health STRING,
  link_quality DOUBLE,
  ts TIMESTAMP TIME INDEX
) WITH (ttl='30d')
`
	if _, err := client.SQL(ctx, ddl); err != nil {
		return nil, err
	}

	return &GreptimeWriter{
		client: client,
		db:     database,
		table:  telemetry.ArchiveTableName,
		logger: logger,
	}, nil
}

// Write inserts a single archive row.
func (w *GreptimeWriter) Write(row telemetry.ArchiveRow) error {
	return w.WriteBatch([]telemetry.ArchiveRow{row})
}

// WriteBatch inserts multiple archive rows.
func (w *GreptimeWriter) WriteBatch(rows []telemetry.ArchiveRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx := ingesterContext.NewContext(context.Background())

	tbl := table.New(w.table)
	tbl.AddTagColumn("cluster_id", types.StringType, 0)
	tbl.AddTagColumn("drone_id", types.StringType, 0)
	tbl.AddFieldColumn("lat", types.Float64Type)
	tbl.AddFieldColumn("lon", types.Float64Type)
	tbl.AddFieldColumn("alt_msl", types.Float64Type)
	tbl.AddFieldColumn("alt_agl", types.Float64Type)
	tbl.AddFieldColumn("heading", types.Float64Type)
	tbl.AddFieldColumn("speed", types.Float64Type)
	tbl.AddFieldColumn("health", types.StringType)
	tbl.AddFieldColumn("link_quality", types.Float64Type)
	tbl.SetTimeIndex("ts", types.TimestampType)

	for _, r := range rows {
		tbl.AppendTagValue("cluster_id", r.ClusterID)
		tbl.AppendTagValue("drone_id", r.DroneID)
		tbl.AppendFieldValue("lat", r.Lat)
		tbl.AppendFieldValue("lon", r.Lon)
		tbl.AppendFieldValue("alt_msl", r.AltMSL)
		tbl.AppendFieldValue("alt_agl", r.AltAGL)
		tbl.AppendFieldValue("heading", r.Heading)
		tbl.AppendFieldValue("speed", r.Speed)
		tbl.AppendFieldValue("health", r.Health)
		tbl.AppendFieldValue("link_quality", r.LinkQuality)
		tbl.AppendTimeIndex(r.Timestamp)
	}

	if err := w.client.Write(ctx, w.db, []*table.Table{tbl}); err != nil {
		w.logger.Error("greptime write failed", "rows", len(rows), "err", err)
		return err
	}
	return nil
}
