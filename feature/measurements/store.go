package measurements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"measurement-extractor/core/database"
	"measurement-extractor/feature/measurements/models"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// Store persists run summaries.
type Store struct {
	db *gorm.DB
}

// NewStore creates a run store on db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the run tables.
func (s *Store) Migrate() error {
	return database.Migrate(s.db, &models.Run{}, &models.Conflict{}, &models.Incomplete{})
}

// Save stores a report together with its conflicts and incomplete admissions.
func (s *Store) Save(ctx context.Context, r *Report) error {
	run, err := runFromReport(r)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.RunID, err)
	}
	return nil
}

// Get loads a stored run with its details.
func (s *Store) Get(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := s.db.WithContext(ctx).
		Preload("Conflicts").
		Preload("Incompletes").
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return &run, nil
}

func runFromReport(r *Report) (*models.Run, error) {
	run := &models.Run{
		ID:                   r.RunID,
		Source:               r.Source,
		Output:               r.Output,
		Object:               r.Object,
		RecordsScanned:       r.Stats.RecordsScanned,
		RowsExamined:         r.Stats.RowsExamined,
		ErrorRows:            r.Stats.ErrorRows,
		MatchedRows:          r.Stats.MatchedRows,
		CutoffReached:        r.Stats.CutoffReached,
		CompleteAdmissions:   r.CompleteAdmissions,
		ConflictedAdmissions: r.ConflictedAdmissions,
		IncompleteAdmissions: r.IncompleteAdmissions,
		PopulatedHeaders:     strings.Join(r.PopulatedHeaders, ","),
	}

	for _, c := range r.Conflicts {
		obs, err := json.Marshal(c.Observations)
		if err != nil {
			return nil, fmt.Errorf("failed to encode observations: %w", err)
		}
		run.Conflicts = append(run.Conflicts, models.Conflict{
			AdmissionID:  c.AdmissionID,
			ItemID:       c.Item.ID,
			Reason:       string(c.Reason),
			Observations: string(obs),
		})
	}
	for _, inc := range r.Incomplete {
		run.Incompletes = append(run.Incompletes, models.Incomplete{
			AdmissionID:  inc.AdmissionID,
			MissingItems: strings.Join(inc.MissingItems, ","),
		})
	}
	return run, nil
}
