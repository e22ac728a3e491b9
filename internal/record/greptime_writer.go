package record

import (
	"context"
	"log"
	"strconv"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// GreptimeWriter writes status rows to GreptimeDB via the ingester client.
type GreptimeWriter struct {
	client *greptime.Client
	db     string
	table  string
}

// NewGreptimeWriter creates a GreptimeDB writer and auto-creates the table
// if needed.
func NewGreptimeWriter(endpoint, database string) (*GreptimeWriter, error) {
	ctx := ingesterContext.New(context.Background())
	client, err := greptime.NewClient(greptime.NewConfig(endpoint).WithDatabase(database))
	if err != nil {
		return nil, err
	}

	ddl := `
CREATE TABLE IF NOT EXISTS ` + StatusTableName + ` (
  vehicle_id STRING TAG,
  state STRING,
  verdict STRING,
  verdict_kind STRING,
  forward DOUBLE,
  "right" DOUBLE,
  up DOUBLE,
  yaw_rate DOUBLE,
  battery DOUBLE,
  satellites DOUBLE,
  altitude DOUBLE,
  lat DOUBLE,
  lon DOUBLE,
  target_id STRING,
  target_lost STRING,
  command_seq DOUBLE,
  ts TIMESTAMP TIME INDEX
) WITH (ttl='30d')
`
	if _, err := client.SQL(ctx, ddl); err != nil {
		return nil, err
	}

	return &GreptimeWriter{
		client: client,
		db:     database,
		table:  StatusTableName,
	}, nil
}

// Write inserts a single status row.
func (w *GreptimeWriter) Write(row StatusRow) error {
	return w.WriteBatch([]StatusRow{row})
}

// WriteBatch inserts multiple status rows.
func (w *GreptimeWriter) WriteBatch(rows []StatusRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx := ingesterContext.New(context.Background())

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("vehicle_id", types.STRING)
	tbl.AddFieldColumn("state", types.STRING)
	tbl.AddFieldColumn("verdict", types.STRING)
	tbl.AddFieldColumn("verdict_kind", types.STRING)
	tbl.AddFieldColumn("forward", types.FLOAT64)
	tbl.AddFieldColumn("right", types.FLOAT64)
	tbl.AddFieldColumn("up", types.FLOAT64)
	tbl.AddFieldColumn("yaw_rate", types.FLOAT64)
	tbl.AddFieldColumn("battery", types.FLOAT64)
	tbl.AddFieldColumn("satellites", types.FLOAT64)
	tbl.AddFieldColumn("altitude", types.FLOAT64)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lon", types.FLOAT64)
	tbl.AddFieldColumn("target_id", types.STRING)
	tbl.AddFieldColumn("target_lost", types.STRING)
	tbl.AddFieldColumn("command_seq", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP)

	for _, r := range rows {
		if err := tbl.AddRow(
			r.VehicleID,
			r.State,
			r.Verdict,
			r.VerdictKind,
			r.Forward,
			r.Right,
			r.Up,
			r.YawRate,
			r.Battery,
			float64(r.Satellites),
			r.Altitude,
			r.Lat,
			r.Lon,
			r.TargetID,
			strconv.FormatBool(r.TargetLost),
			float64(r.CommandSeq),
			r.Timestamp,
		); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(ctx, tbl); err != nil {
		log.Printf("[GreptimeWriter] write failed: %v", err)
		return err
	}
	return nil
}
