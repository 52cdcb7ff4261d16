package sim

import (
	"context"
	"log"
	"strconv"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"dronedispatch/internal/telemetry"
)

// GreptimeDBWriter exports tracking samples to GreptimeDB via the ingester
// client.
type GreptimeDBWriter struct {
	client greptime.Client
	db     string
	table  string
}

// NewGreptimeDBWriter creates a new GreptimeDB writer and auto-creates the
// table if needed.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	ctx := ingesterContext.NewContext(context.Background())
	client, err := greptime.NewClient(ctx, &greptime.Config{
		Endpoint: endpoint,
	})
	if err != nil {
		return nil, err
	}

	ddl := `
CREATE TABLE IF NOT EXISTS ` + telemetry.TrackingTableName + ` (
  drone_id STRING TAG,
  order_id BIGINT,
  lat DOUBLE,
  lng DOUBLE,
  altitude_m DOUBLE,
  speed_kmh DOUBLE,
  battery_pct DOUBLE,
  status STRING,
  ts TIMESTAMP TIME INDEX
) WITH (ttl='30d')
`
	if _, err := client.SQL(ctx, ddl); err != nil {
		return nil, err
	}

	return &GreptimeDBWriter{
		client: client,
		db:     database,
		table:  telemetry.TrackingTableName,
	}, nil
}

// Write inserts a single sample.
func (w *GreptimeDBWriter) Write(sample telemetry.TrackingSample) error {
	return w.WriteBatch([]telemetry.TrackingSample{sample})
}

// WriteBatch inserts multiple samples.
func (w *GreptimeDBWriter) WriteBatch(samples []telemetry.TrackingSample) error {
	if len(samples) == 0 {
		return nil
	}

	ctx := ingesterContext.NewContext(context.Background())

	tbl := table.New(w.table)
	tbl.AddTagColumn("drone_id", types.StringType, 0)
	tbl.AddFieldColumn("order_id", types.Int64Type)
	tbl.AddFieldColumn("lat", types.Float64Type)
	tbl.AddFieldColumn("lng", types.Float64Type)
	tbl.AddFieldColumn("altitude_m", types.Float64Type)
	tbl.AddFieldColumn("speed_kmh", types.Float64Type)
	tbl.AddFieldColumn("battery_pct", types.Float64Type)
	tbl.AddFieldColumn("status", types.StringType)
	tbl.SetTimeIndex("ts", types.TimestampType)

	for _, s := range samples {
		var orderID int64
		if s.OrderID != nil {
			orderID = *s.OrderID
		}
		tbl.AppendTagValue("drone_id", formatDroneID(s.DroneID))
		tbl.AppendFieldValue("order_id", orderID)
		tbl.AppendFieldValue("lat", s.Lat)
		tbl.AppendFieldValue("lng", s.Lng)
		tbl.AppendFieldValue("altitude_m", s.AltitudeM)
		tbl.AppendFieldValue("speed_kmh", s.SpeedKMH)
		tbl.AppendFieldValue("battery_pct", s.BatteryPct)
		tbl.AppendFieldValue("status", string(s.Status))
		tbl.AppendTimeIndex(s.Timestamp)
	}

	if err := w.client.Write(ctx, w.db, []*table.Table{tbl}); err != nil {
		log.Printf("[GreptimeDBWriter] Write failed: %v", err)
		return err
	}
	return nil
}

func formatDroneID(id int64) string {
	return strconv.FormatInt(id, 10)
}
