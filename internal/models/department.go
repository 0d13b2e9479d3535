package models

import "time"

// Department scopes task visibility and metrics.
type Department struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:50;uniqueIndex;not null"`
	ManagerID *uint     `json:"managerId" gorm:"column:manager_id"`
	Manager   *User     `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Department Model
func (Department) TableName() string {
	return "departments"
}
