package models

// Region is an administrative region cities belong to.
type Region struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// City is a vacancy location.
type City struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"size:255;uniqueIndex;not null" json:"name"`
	RegionID *uint   `gorm:"index" json:"region_id,omitempty"`
	Region   *Region `gorm:"foreignKey:RegionID;constraint:OnDelete:SET NULL" json:"region,omitempty"`
}

// TableName pins the table name.
func (City) TableName() string { return "cities" }

// DisplayName is "name, region" when the region is loaded and set.
func (c *City) DisplayName() string {
	if c.Region != nil && c.Region.Name != "" {
		return c.Name + ", " + c.Region.Name
	}
	return c.Name
}

// ProfessionalArea groups vacancies by field of work.
type ProfessionalArea struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}
