package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"openhours/internal/domain"
)

// ParquetStore archives facility rule sets as Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// RuleRecord is the Parquet schema for one rule. Instants are kept as Unix
// milliseconds plus the UTC offset they were written with, so bounds read
// back in the same zone they were defined in.
type RuleRecord struct {
	Position   int32  `parquet:"position"`
	ID         string `parquet:"id"`
	Label      string `parquet:"label"`
	ValidFrom  int64  `parquet:"valid_from,timestamp(millisecond)"` // Unix ms
	FromOffset int32  `parquet:"valid_from_offset"`                 // seconds east of UTC
	ValidTo    int64  `parquet:"valid_to,timestamp(millisecond)"`   // Unix ms
	ToOffset   int32  `parquet:"valid_to_offset"`
	OpenEnded  bool   `parquet:"open_ended"`
	StartTime  string `parquet:"start_time"`
	EndTime    string `parquet:"end_time"`
	Weekdays   string `parquet:"weekdays"`
}

// Export writes a facility's rules, replacing any earlier archive.
//
//	<DataDir>/<facility>/rules.parquet
func (s *ParquetStore) Export(facility string, rules []domain.Rule) error {
	records := make([]RuleRecord, 0, len(rules))
	for i, r := range rules {
		records = append(records, toRecord(i, r))
	}
	path := s.rulesPath(facility)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing rules for %s: %w", facility, err)
	}
	return nil
}

// Import reads a facility's archived rules in their original order.
func (s *ParquetStore) Import(facility string) ([]domain.Rule, error) {
	path := s.rulesPath(facility)
	records, err := parquet.ReadFile[RuleRecord](path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFacilityNotFound, facility)
		}
		return nil, fmt.Errorf("reading rules for %s: %w", facility, err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Position < records[j].Position
	})

	rules := make([]domain.Rule, 0, len(records))
	for _, rec := range records {
		r, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Facilities lists the facilities that have an archive.
func (s *ParquetStore) Facilities() ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var facilities []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(s.rulesPath(e.Name())); err == nil {
			facilities = append(facilities, e.Name())
		}
	}
	sort.Strings(facilities)
	return facilities, nil
}

// rulesPath returns the filesystem path for a facility's archive.
func (s *ParquetStore) rulesPath(facility string) string {
	return filepath.Join(s.DataDir, facility, "rules.parquet")
}

func toRecord(pos int, r domain.Rule) RuleRecord {
	_, fromOff := r.ValidFrom.Zone()
	rec := RuleRecord{
		Position:   int32(pos),
		ID:         r.ID,
		Label:      r.Label,
		ValidFrom:  r.ValidFrom.UnixMilli(),
		FromOffset: int32(fromOff),
		OpenEnded:  r.OpenEnded(),
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Weekdays:   r.Weekdays.String(),
	}
	if !r.OpenEnded() {
		_, toOff := r.ValidTo.Zone()
		rec.ValidTo = r.ValidTo.UnixMilli()
		rec.ToOffset = int32(toOff)
	}
	return rec
}

func fromRecord(rec RuleRecord) (domain.Rule, error) {
	days, err := domain.ParseWeekdaySet(rec.Weekdays)
	if err != nil {
		return domain.Rule{}, fmt.Errorf("rule %s: weekdays: %w", rec.ID, err)
	}
	r := domain.Rule{
		ID:        rec.ID,
		Label:     rec.Label,
		ValidFrom: inOffset(rec.ValidFrom, rec.FromOffset),
		StartTime: rec.StartTime,
		EndTime:   rec.EndTime,
		Weekdays:  days,
	}
	if !rec.OpenEnded {
		r.ValidTo = inOffset(rec.ValidTo, rec.ToOffset)
	}
	return r, nil
}

func inOffset(ms int64, offset int32) time.Time {
	return time.UnixMilli(ms).In(time.FixedZone("", int(offset)))
}
