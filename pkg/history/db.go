package history

import (
	"context"
	"fmt"

	"github.com/arnavshah/oncall-api-go/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore keeps the history in the selection_counts table.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore returns a store using an already migrated connection.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Load reads every row.
func (s *DBStore) Load(ctx context.Context) (History, error) {
	var rows []database.SelectionCount
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load selection counts: %w", err)
	}

	h := make(History, len(rows))
	for _, r := range rows {
		h[Key(r.Date, r.PersonName)] = r.Count
	}
	return h, nil
}

// Save upserts every entry of h in one transaction. Rows missing from h are
// left alone; history entries are never removed.
func (s *DBStore) Save(ctx context.Context, h History) error {
	if len(h) == 0 {
		return nil
	}

	rows := make([]database.SelectionCount, 0, len(h))
	for k, v := range h {
		date, person, ok := SplitKey(k)
		if !ok {
			return fmt.Errorf("malformed history key %q", k)
		}
		rows = append(rows, database.SelectionCount{Date: date, PersonName: person, Count: v})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "person_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"count"}),
		}).CreateInBatches(rows, 200).Error
		if err != nil {
			return fmt.Errorf("save selection counts: %w", err)
		}
		return nil
	})
}
