package storage

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A Dictionary is a single record in a DictStore.
type Dictionary struct {
	Key       string `gorm:"primarykey;size:191"`
	UpdatedAt time.Time
	Value     []byte `gorm:"type:blob"`
}

// A DictStore stores records as rows in a dictionaries table.
// The same schema works on both the sqlite and mysql dialectors.
type DictStore struct {
	db *gorm.DB
}

// NewDictStore returns a DictStore backed by db, migrating the
// dictionaries table if required.
func NewDictStore(db *gorm.DB) (*DictStore, error) {
	if err := db.AutoMigrate(&Dictionary{}); err != nil {
		return nil, err
	}
	return &DictStore{db: db}, nil
}

func (s *DictStore) ReadDictionary(key string, v any) error {
	var row Dictionary
	if err := s.db.First(&row, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotExist
		}
		return err
	}
	return json.Unmarshal(row.Value, v)
}

func (s *DictStore) WriteDictionary(key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	row := Dictionary{Key: key, Value: buf}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (s *DictStore) Keys(prefix string) ([]string, error) {
	keys := []string{}
	err := s.db.Model(&Dictionary{}).
		Where("key LIKE ?", prefix+"%").
		Pluck("key", &keys).Error
	return keys, err
}
