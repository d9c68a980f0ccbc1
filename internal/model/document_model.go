package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename    string         `gorm:"type:varchar(255);not null"`
	StorageKey  string         `gorm:"type:varchar(500)"` // e.g. S3 object key
	FileSize    int64          `gorm:"default:0"`
	FileType    string         `gorm:"type:varchar(50)"`
	TextContent string         `gorm:"type:text"`
	Status      string         `gorm:"type:varchar(50);not null;default:'uploaded';index"`
	UploadedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
