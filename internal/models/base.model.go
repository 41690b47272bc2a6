package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseUUIDModel struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime"              json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"              json:"updatedAt"`
}

func (b *BaseUUIDModel) BeforeSave(tx *gorm.DB) error {
	if b.ID == "" {
		uuidString, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = uuidString.String()
	}
	return nil
}
