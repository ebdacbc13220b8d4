package models

// SettingBackendURL is the key of the public backend address setting.
const SettingBackendURL = "backend_url"

// Setting is a key/value system configuration entry.
type Setting struct {
	Base
	Key         string `gorm:"column:setting_key;uniqueIndex;size:100;not null" json:"key"`
	Value       string `gorm:"type:text;not null" json:"value"`
	Description string `gorm:"size:255" json:"description,omitempty"`
	UpdatedByID *uint  `json:"updated_by_id,omitempty"`
}
