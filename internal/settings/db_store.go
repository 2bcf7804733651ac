package settings

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/chatgate/internal/models"
)

var errStoreNotInitialised = errors.New("settings: database store not initialised")

// DBStore persists snapshots in the server_settings table.
type DBStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBStore constructs a database-backed Store.
func NewDBStore(db *gorm.DB) *DBStore {
	if db == nil {
		return nil
	}
	return &DBStore{db: db, now: time.Now}
}

func (s *DBStore) Get(ctx context.Context, serverURL string) (Snapshot, bool, error) {
	if s == nil {
		return Snapshot{}, false, errStoreNotInitialised
	}

	var row models.ServerSettings
	err := s.db.WithContext(ctx).Take(&row, "server_url = ?", serverURL).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	return NewSnapshot(row.Values), true, nil
}

// Save upserts the snapshot for serverURL. The previous snapshot is overwritten.
func (s *DBStore) Save(ctx context.Context, serverURL string, snapshot Snapshot) error {
	if s == nil {
		return errStoreNotInitialised
	}

	row := models.ServerSettings{
		ServerURL: serverURL,
		Values:    datatypes.JSONMap(snapshot.Values()),
		FetchedAt: s.now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "server_url"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "updated_at"}),
		}).Create(&row).Error
}

func (s *DBStore) List(ctx context.Context) ([]string, error) {
	if s == nil {
		return nil, errStoreNotInitialised
	}

	var urls []string
	err := s.db.WithContext(ctx).
		Model(&models.ServerSettings{}).
		Order("server_url").
		Pluck("server_url", &urls).Error
	return urls, err
}

func (s *DBStore) Delete(ctx context.Context, serverURL string) error {
	if s == nil {
		return errStoreNotInitialised
	}
	return s.db.WithContext(ctx).
		Where("server_url = ?", serverURL).
		Delete(&models.ServerSettings{}).Error
}
