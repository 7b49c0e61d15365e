package models

import (
	"time"

	"gorm.io/datatypes"
)

// Run records one simulation run.
type Run struct {
	ID     uint   `gorm:"primaryKey"`
	Seed   int64  `gorm:"not null"`
	Source string `gorm:"type:text"`

	Ticks  int64  `gorm:"default:0"`
	Status string `gorm:"type:varchar(20);default:'running'"`

	StartedAt  time.Time `gorm:"autoCreateTime"`
	FinishedAt *time.Time

	Blocks        []BlockRecord  `gorm:"foreignKey:RunID"`
	Substitutions []Substitution `gorm:"foreignKey:RunID"`
}

// BlockRecord captures one script block of a run, with its identifier-use
// summary serialized as JSON.
type BlockRecord struct {
	ID    uint `gorm:"primaryKey"`
	RunID uint `gorm:"index"`

	BlockID   string `gorm:"type:varchar(32)"`
	Kind      string `gorm:"type:varchar(20);not null"`
	StartTick int64
	EndTick   int64

	Usage datatypes.JSON
}

// Substitution records a mutation that reached fixation during a run.
type Substitution struct {
	ID    uint `gorm:"primaryKey"`
	RunID uint `gorm:"index"`

	MutationID   int64  `gorm:"index"`
	MutationType string `gorm:"type:varchar(32)"`
	Chromosome   int32
	Position     int64
	OriginTick   int64
	FixationTick int64
	Effect       float64
}

func (Run) TableName() string          { return "runs" }
func (BlockRecord) TableName() string  { return "block_records" }
func (Substitution) TableName() string { return "substitutions" }
