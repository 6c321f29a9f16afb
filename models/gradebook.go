package models

import "time"

type Student struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	FirstName string  `gorm:"size:120;not null" json:"first_name"`
	LastName  string  `gorm:"size:120;not null" json:"last_name"`
	Email     string  `gorm:"size:200;not null;uniqueIndex" json:"email"`
	Grades    []Grade `gorm:"constraint:OnDelete:CASCADE" json:"grades,omitempty"`
}

type Course struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:120;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Grades      []Grade `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Assignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:120;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `gorm:"type:date" json:"due_date"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	Grades      []Grade    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Grade struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Value        float64     `gorm:"not null" json:"value"`
	StudentID    uint        `gorm:"not null;index" json:"student_id"`
	CourseID     uint        `gorm:"not null;index" json:"course_id"`
	AssignmentID uint        `gorm:"not null;index" json:"assignment_id"`
	Student      *Student    `json:"student,omitempty"`
	Course       *Course     `json:"course,omitempty"`
	Assignment   *Assignment `json:"assignment,omitempty"`
}

// Gradebook lists the models migrated for the gradebook backend.
func Gradebook() []any {
	return []any{&Student{}, &Course{}, &Assignment{}, &Grade{}}
}
