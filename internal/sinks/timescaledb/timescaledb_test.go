package timescaledb

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgtype"

	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/aqi"
)

func TestNewRecord(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	pm10 := 12.5

	rec, ok, err := newRecord(types.Update{
		PollID:     "abc",
		Timestamp:  ts,
		SensorName: "backyard",
		Outcome:    "accepted",
		Snapshot: &types.Snapshot{
			PM25:         15,
			PM10:         &pm10,
			AQI:          56,
			Category:     aqi.Good,
			CategoryName: "Good",
			LastModified: 1200,
			Channels:     2,
		},
	})
	if err != nil || !ok {
		t.Fatalf("newRecord() = %v, %v; expected a record", ok, err)
	}

	if !rec.Time.Equal(ts) || rec.SensorName != "backyard" || rec.PollID != "abc" {
		t.Errorf("unexpected identity: %+v", rec)
	}
	if rec.PM25 != 15 || rec.PM10 == nil || *rec.PM10 != 12.5 || rec.AQI != 56 {
		t.Errorf("unexpected metrics: %+v", rec)
	}
	if rec.Category != int(aqi.Good) || rec.LastModified != 1200 || rec.Channels != 2 {
		t.Errorf("unexpected category or bookkeeping: %+v", rec)
	}
	if rec.TempC != nil || rec.Humidity != nil {
		t.Error("missing environment readings should stay NULL")
	}

	if rec.Detail.Status != pgtype.Present {
		t.Fatalf("detail status = %v, expected present", rec.Detail.Status)
	}
	var detail types.Update
	if err := json.Unmarshal(rec.Detail.Bytes, &detail); err != nil {
		t.Fatalf("detail is not valid JSON: %v", err)
	}
	if detail.Snapshot == nil || detail.Snapshot.AQI != 56 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestNewRecordSkipsFaults(t *testing.T) {
	_, ok, err := newRecord(types.Update{SensorName: "backyard", Fault: true})
	if err != nil || ok {
		t.Errorf("newRecord() = %v, %v; expected nothing to store", ok, err)
	}
}

func TestTableName(t *testing.T) {
	if (Record{}).TableName() != "air_quality" {
		t.Errorf("TableName() = %q", (Record{}).TableName())
	}
}
