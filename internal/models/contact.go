package models

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	BaseModel
	Name    string `gorm:"type:varchar(191);not null" json:"name"`
	Email   string `gorm:"type:varchar(191);not null" json:"email"`
	Subject string `gorm:"type:varchar(191)" json:"subject"`
	Message string `gorm:"type:text;not null" json:"message"`
}

func (ContactMessage) TableName() string { return "contacts" }
