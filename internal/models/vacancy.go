package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// WorkSchedule is the kind of schedule a vacancy offers.
type WorkSchedule string

const (
	ScheduleFull   WorkSchedule = "full"
	ScheduleShift  WorkSchedule = "shift"
	ScheduleFlex   WorkSchedule = "flex"
	ScheduleRemote WorkSchedule = "remote"
)

// ExperienceLevel is the amount of prior experience a vacancy asks for.
type ExperienceLevel string

const (
	ExperienceNone     ExperienceLevel = "no_exp"
	ExperienceOneThree ExperienceLevel = "1_3"
	ExperienceThreeSix ExperienceLevel = "3_6"
	ExperienceSixPlus  ExperienceLevel = "6_plus"
)

// Choice is a stored value with its display label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// WorkSchedules lists schedule choices in display order.
var WorkSchedules = []Choice{
	{Value: string(ScheduleFull), Label: "Full day"},
	{Value: string(ScheduleShift), Label: "Shift work"},
	{Value: string(ScheduleFlex), Label: "Flexible schedule"},
	{Value: string(ScheduleRemote), Label: "Remote work"},
}

// ExperienceLevels lists experience choices in display order.
var ExperienceLevels = []Choice{
	{Value: string(ExperienceNone), Label: "No experience"},
	{Value: string(ExperienceOneThree), Label: "1 to 3 years"},
	{Value: string(ExperienceThreeSix), Label: "3 to 6 years"},
	{Value: string(ExperienceSixPlus), Label: "More than 6 years"},
}

func choiceValid(choices []Choice, v string) bool {
	for _, c := range choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known schedule.
func (s WorkSchedule) Valid() bool { return choiceValid(WorkSchedules, string(s)) }

// Valid reports whether e is a known experience level.
func (e ExperienceLevel) Valid() bool { return choiceValid(ExperienceLevels, string(e)) }

// Vacancy is a job posting.
type Vacancy struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	Title              string            `gorm:"size:255;not null" json:"title"`
	ShortDescription   string            `gorm:"size:500;not null" json:"short_description"`
	Description        string            `gorm:"type:text;not null" json:"description"`
	ProfessionalAreaID uint              `gorm:"not null;index" json:"professional_area_id"`
	ProfessionalArea   *ProfessionalArea `gorm:"foreignKey:ProfessionalAreaID;constraint:OnDelete:CASCADE" json:"professional_area,omitempty"`
	CityID             uint              `gorm:"not null;index" json:"city_id"`
	City               *City             `gorm:"foreignKey:CityID;constraint:OnDelete:CASCADE" json:"city,omitempty"`
	WorkSchedule       WorkSchedule      `gorm:"size:20;not null;default:full" json:"work_schedule"`
	ExperienceLevel    ExperienceLevel   `gorm:"size:20;not null;default:no_exp" json:"experience_level"`
	SalaryFrom         *uint             `json:"salary_from,omitempty"`
	SalaryTo           *uint             `json:"salary_to,omitempty"`
	IsActive           bool              `gorm:"not null;index" json:"is_active"`
	CreatedAt          time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// TableName pins the table name.
func (Vacancy) TableName() string { return "vacancies" }

func salarySet(v *uint) bool { return v != nil && *v > 0 }

// FormattedSalary renders the salary range for display.
func (v *Vacancy) FormattedSalary() string {
	from, to := salarySet(v.SalaryFrom), salarySet(v.SalaryTo)
	switch {
	case from && to:
		return fmt.Sprintf("%d–%d", *v.SalaryFrom, *v.SalaryTo)
	case from:
		return fmt.Sprintf("from %d", *v.SalaryFrom)
	case to:
		return fmt.Sprintf("up to %d", *v.SalaryTo)
	default:
		return ""
	}
}

// Validate checks cross-field rules. The upper salary bound must exceed the
// lower one when both are given.
func (v *Vacancy) Validate() error {
	if salarySet(v.SalaryFrom) && salarySet(v.SalaryTo) && *v.SalaryFrom >= *v.SalaryTo {
		return NewFieldError("salary_to", "The upper salary bound must be greater than the lower bound.")
	}
	return nil
}

// BeforeSave runs Validate on every create and update.
func (v *Vacancy) BeforeSave(tx *gorm.DB) error {
	return v.Validate()
}

// VacancyView is the view of a vacancy sent over the API, with the
// formatted salary attached.
type VacancyView struct {
	*Vacancy
	Salary string `json:"salary"`
}

// View wraps the vacancy for JSON output.
func (v *Vacancy) View() VacancyView {
	return VacancyView{Vacancy: v, Salary: v.FormattedSalary()}
}
