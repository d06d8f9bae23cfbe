package models

import "time"

// Run is a stored extraction summary.
type Run struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Source string `gorm:"size:1024" json:"source"`
	Output string `gorm:"size:1024" json:"output"`
	Object string `gorm:"size:1024" json:"object,omitempty"`

	RecordsScanned int  `json:"records_scanned"`
	RowsExamined   int  `json:"rows_examined"`
	ErrorRows      int  `json:"error_rows"`
	MatchedRows    int  `json:"matched_rows"`
	CutoffReached  bool `json:"cutoff_reached"`

	CompleteAdmissions   int `json:"complete_admissions"`
	ConflictedAdmissions int `json:"conflicted_admissions"`
	IncompleteAdmissions int `json:"incomplete_admissions"`

	// PopulatedHeaders is a comma separated list.
	PopulatedHeaders string `gorm:"type:text" json:"populated_headers"`

	Conflicts   []Conflict   `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"conflicts,omitempty"`
	Incompletes []Incomplete `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"incompletes,omitempty"`
}

func (Run) TableName() string { return "extraction_runs" }

// Conflict is a stored unmergeable (admission, item) pair.
type Conflict struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	RunID       string `gorm:"index;size:36" json:"-"`
	AdmissionID string `gorm:"size:64" json:"admission_id"`
	ItemID      string `gorm:"size:64" json:"item_id"`
	Reason      string `gorm:"size:32" json:"reason"`
	// Observations is a JSON array of {value, unit} objects.
	Observations string `gorm:"type:text" json:"observations"`
}

func (Conflict) TableName() string { return "extraction_conflicts" }

// Incomplete is a stored admission removed for missing items.
type Incomplete struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	RunID       string `gorm:"index;size:36" json:"-"`
	AdmissionID string `gorm:"size:64" json:"admission_id"`
	// MissingItems is a comma separated list of item ids.
	MissingItems string `gorm:"type:text" json:"missing_items"`
}

func (Incomplete) TableName() string { return "extraction_incompletes" }
