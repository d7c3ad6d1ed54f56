package internal

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// ReportStore persists every emitted report line to MySQL for
// historical analysis, in addition to the SRT files written for
// playback review. Optional, config-gated by a non-empty
// database.mysql_dsn.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore opens the MySQL connection described by dsn. Callers
// should only invoke this when dsn is non-empty.
func NewReportStore(dsn string) (*ReportStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, NewError(err, ErrCodeIO, "ReportStore", "Open")
	}

	if err := db.Ping(); err != nil {
		return nil, NewError(err, ErrCodeIO, "ReportStore", "Ping")
	}

	log.Println("✅ Connected to MySQL successfully")
	return &ReportStore{db: db}, nil
}

// InsertNetReport records one Net Analyzer report row.
func (s *ReportStore) InsertNetReport(track string, ssrc uint32, lossPct, jitterMs, rttMs float64) error {
	const query = `
		INSERT INTO probe_net_reports (track, ssrc, loss_pct, jitter_ms, rtt_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, track, ssrc, lossPct, jitterMs, rttMs, time.Now())
	if err != nil {
		return NewError(err, ErrCodeIO, "ReportStore", "InsertNetReport")
	}
	return nil
}

// InsertVideoReport records one Video Analyzer report row.
func (s *ReportStore) InsertVideoReport(bitrateMbps, fps, greenRatio, mosaicRatio float64) error {
	const query = `
		INSERT INTO probe_video_reports (bitrate_mbps, fps, green_ratio, mosaic_ratio, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, bitrateMbps, fps, greenRatio, mosaicRatio, time.Now())
	if err != nil {
		return NewError(err, ErrCodeIO, "ReportStore", "InsertVideoReport")
	}
	return nil
}

// InsertAudioReport records one Audio Analyzer report row.
func (s *ReportStore) InsertAudioReport(maxVoiceDB, maxNoiseDB float64) error {
	const query = `
		INSERT INTO probe_audio_reports (max_voice_db, max_noise_db, recorded_at)
		VALUES (?, ?, ?)
	`
	_, err := s.db.Exec(query, maxVoiceDB, maxNoiseDB, time.Now())
	if err != nil {
		return NewError(err, ErrCodeIO, "ReportStore", "InsertAudioReport")
	}
	return nil
}

// RecentNetReportCount returns how many net reports landed since since.
func (s *ReportStore) RecentNetReportCount(since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM probe_net_reports WHERE recorded_at >= ?`
	var count int
	if err := s.db.QueryRow(query, since).Scan(&count); err != nil {
		return 0, NewError(err, ErrCodeIO, "ReportStore", "RecentNetReportCount")
	}
	return count, nil
}

// Close closes the MySQL connection.
func (s *ReportStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewError(err, ErrCodeIO, "ReportStore", "Close")
	}
	log.Println("✅ MySQL connection closed")
	return nil
}
