package entities

import "time"

// Frequency is the publication cycle of a journal.
type Frequency string

const (
	FrequencyAnnually     Frequency = "annually"
	FrequencySemiannually Frequency = "semiannually"
	FrequencyQuarterly    Frequency = "quarterly"
	FrequencyMonthly      Frequency = "monthly"
	FrequencySemimonthly  Frequency = "semimonthly"
	FrequencyFortnightly  Frequency = "fortnightly"
	FrequencyWeekly       Frequency = "weekly"
)

// Frequencies lists every known frequency, least to most frequent.
var Frequencies = []Frequency{
	FrequencyAnnually,
	FrequencySemiannually,
	FrequencyQuarterly,
	FrequencyMonthly,
	FrequencySemimonthly,
	FrequencyFortnightly,
	FrequencyWeekly,
}

type Journal struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"uniqueIndex;size:255;not null" json:"name" validate:"required,max=255"`
	UsedName          string    `gorm:"size:255" json:"used_name" validate:"max=255"`
	Language          string    `gorm:"size:50;not null" json:"language" validate:"required,max=50"`
	Frequency         Frequency `gorm:"size:20;not null" json:"frequency" validate:"required,frequency"`
	ISSN              string    `gorm:"column:issn;uniqueIndex;size:9;not null" json:"issn" validate:"required,issn"`
	CNCode            string    `gorm:"column:cn_code;uniqueIndex;size:16;not null" json:"cn_code" validate:"required,cncode"`
	PostalCode        string    `gorm:"uniqueIndex;size:16;not null" json:"postal_code" validate:"required,postalcode"`
	FoundedOn         string    `gorm:"size:50" json:"founded_on"`
	Organizer         string    `gorm:"size:255" json:"organizer"`
	Publisher         string    `gorm:"size:255" json:"publisher"`
	RemittanceAddress string    `gorm:"size:500" json:"remittance_address"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Journal) TableName() string {
	return "journals"
}

func (j *Journal) Export() map[string]any {
	return map[string]any{
		"id":                 j.ID,
		"name":               j.Name,
		"used_name":          j.UsedName,
		"language":           j.Language,
		"frequency":          string(j.Frequency),
		"issn":               j.ISSN,
		"cn_code":            j.CNCode,
		"postal_code":        j.PostalCode,
		"founded_on":         j.FoundedOn,
		"organizer":          j.Organizer,
		"publisher":          j.Publisher,
		"remittance_address": j.RemittanceAddress,
	}
}
