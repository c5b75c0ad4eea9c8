package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bdebruin1014/proforma"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// versionRow is a version in the proforma_versions table.
type versionRow struct {
	ProformaID uuid.UUID      `gorm:"primaryKey;type:uuid"`
	Major      int            `gorm:"primaryKey;autoIncrement:false"`
	Minor      int            `gorm:"primaryKey;autoIncrement:false"`
	Name       string         `gorm:"not null"`
	Locked     bool           `gorm:"not null;index"`
	Notes      string         `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"autoCreateTime:false;not null"`
	Snapshot   datatypes.JSON `gorm:"type:jsonb;not null"`
}

func (versionRow) TableName() string { return "proforma_versions" }

// issuedRow is the greatest version identifier ever issued for a pro forma,
// in the proforma_issued table.
type issuedRow struct {
	ProformaID uuid.UUID `gorm:"primaryKey;type:uuid"`
	Major      int       `gorm:"not null"`
	Minor      int       `gorm:"not null"`
}

func (issuedRow) TableName() string { return "proforma_issued" }

func (r issuedRow) id() proforma.VersionID { return proforma.V(r.Major, r.Minor) }

func toRow(id uuid.UUID, v proforma.ProformaVersion) (versionRow, error) {
	snapshot, err := json.Marshal(v.Snapshot)
	if err != nil {
		return versionRow{}, fmt.Errorf("failed to marshal version %v: %w", v.ID, err)
	}
	return versionRow{
		ProformaID: id,
		Major:      v.ID.Major,
		Minor:      v.ID.Minor,
		Name:       v.Snapshot.Name(),
		Locked:     v.Locked,
		Notes:      v.Notes,
		CreatedAt:  v.CreatedAt,
		Snapshot:   datatypes.JSON(snapshot),
	}, nil
}

func (r versionRow) version() (proforma.ProformaVersion, error) {
	var p proforma.Proforma
	if err := json.Unmarshal(r.Snapshot, &p); err != nil {
		return proforma.ProformaVersion{}, fmt.Errorf("version v%d.%d of %v: %w", r.Major, r.Minor, r.ProformaID, err)
	}
	return proforma.ProformaVersion{
		ID:        proforma.V(r.Major, r.Minor),
		CreatedAt: r.CreatedAt,
		Locked:    r.Locked,
		Notes:     r.Notes,
		Snapshot:  p,
	}, nil
}

// SQLStore keeps histories in a PostgreSQL table, one row per version.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore creates a store on an open database.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenSQLStore connects to a PostgreSQL database and migrates its schema.
func OpenSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates the table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&versionRow{}, &issuedRow{}); err != nil {
		return fmt.Errorf("cannot migrate proforma tables: %w", err)
	}
	return nil
}

// Save replaces the draft rows and inserts the locked versions. Locked rows
// that already exist are left untouched, and the issued identifier never goes
// back.
func (s *SQLStore) Save(ctx context.Context, id uuid.UUID, rec proforma.Record) error {
	if err := checkRecord(id, rec); err != nil {
		return err
	}
	var locked, drafts []versionRow
	for _, v := range rec.Versions {
		row, err := toRow(id, v)
		if err != nil {
			return err
		}
		if v.Locked {
			locked = append(locked, row)
		} else {
			drafts = append(drafts, row)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proforma_id = ? AND locked = ?", id, false).Delete(&versionRow{}).Error; err != nil {
			return fmt.Errorf("cannot delete drafts of %v: %w", id, err)
		}
		if len(locked) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&locked).Error; err != nil {
				return fmt.Errorf("cannot insert locked versions of %v: %w", id, err)
			}
		}
		if len(drafts) > 0 {
			if err := tx.Create(&drafts).Error; err != nil {
				return fmt.Errorf("cannot insert draft of %v: %w", id, err)
			}
		}
		issued := issuedRow{ProformaID: id, Major: rec.Issued.Major, Minor: rec.Issued.Minor}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "proforma_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"major": gorm.Expr("CASE WHEN (EXCLUDED.major, EXCLUDED.minor) > (proforma_issued.major, proforma_issued.minor) THEN EXCLUDED.major ELSE proforma_issued.major END"),
				"minor": gorm.Expr("CASE WHEN (EXCLUDED.major, EXCLUDED.minor) > (proforma_issued.major, proforma_issued.minor) THEN EXCLUDED.minor ELSE proforma_issued.minor END"),
			}),
		}).Create(&issued).Error
		if err != nil {
			return fmt.Errorf("cannot save issued version of %v: %w", id, err)
		}
		return nil
	})
}

// Load reads a history in ascending version order.
func (s *SQLStore) Load(ctx context.Context, id uuid.UUID) (proforma.Record, error) {
	db := s.db.WithContext(ctx)
	var rows []versionRow
	err := db.Where("proforma_id = ?", id).
		Order("major, minor").
		Find(&rows).Error
	if err != nil {
		return proforma.Record{}, err
	}
	if len(rows) == 0 {
		return proforma.Record{}, fmt.Errorf("pro forma %v: %w", id, proforma.ErrNotFound)
	}
	var issued []issuedRow
	if err := db.Where("proforma_id = ?", id).Limit(1).Find(&issued).Error; err != nil {
		return proforma.Record{}, err
	}
	return fromRows(rows, issued...)
}

// fromRows converts the rows of a history. The issued row is optional.
func fromRows(rows []versionRow, issued ...issuedRow) (proforma.Record, error) {
	var rec proforma.Record
	for _, r := range rows {
		v, err := r.version()
		if err != nil {
			return proforma.Record{}, err
		}
		rec.Versions = append(rec.Versions, v)
		if rec.Issued.Less(v.ID) {
			rec.Issued = v.ID
		}
	}
	for _, r := range issued {
		if rec.Issued.Less(r.id()) {
			rec.Issued = r.id()
		}
	}
	return rec, nil
}

// Delete removes every version of a pro forma.
func (s *SQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("proforma_id = ?", id).Delete(&versionRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("pro forma %v: %w", id, proforma.ErrNotFound)
		}
		return tx.Where("proforma_id = ?", id).Delete(&issuedRow{}).Error
	})
}

// List returns the identifiers of the stored pro formas.
func (s *SQLStore) List(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&versionRow{}).
		Distinct("proforma_id").
		Order("proforma_id").
		Pluck("proforma_id", &ids).Error
	return ids, err
}
