// Package gradebook is a small school records backend: students, courses,
// assignments and the grades that tie them together.
package gradebook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
)

const DateLayout = "2006-01-02"

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Summary struct {
	Students     int64          `json:"students"`
	Courses      int64          `json:"courses"`
	Assignments  int64          `json:"assignments"`
	Grades       int64          `json:"grades"`
	LatestGrades []models.Grade `json:"latest_grades"`
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	db := s.db.WithContext(ctx)
	var sum Summary
	for model, dst := range map[any]*int64{
		&models.Student{}:    &sum.Students,
		&models.Course{}:     &sum.Courses,
		&models.Assignment{}: &sum.Assignments,
		&models.Grade{}:      &sum.Grades,
	} {
		if err := db.Model(model).Count(dst).Error; err != nil {
			return Summary{}, fmt.Errorf("failed to count records: %w", err)
		}
	}
	err := withRefs(db).Order("id DESC").Limit(5).Find(&sum.LatestGrades).Error
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load latest grades: %w", err)
	}
	return sum, nil
}

// ---- students ----

type StudentInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (in StudentInput) apply(st *models.Student) error {
	st.FirstName = strings.TrimSpace(in.FirstName)
	st.LastName = strings.TrimSpace(in.LastName)
	st.Email = strings.TrimSpace(in.Email)
	if st.FirstName == "" || st.LastName == "" || st.Email == "" {
		return apperr.Invalid("first_name, last_name and email are required")
	}
	return nil
}

func (s *Service) Students(ctx context.Context) ([]models.Student, error) {
	var list []models.Student
	if err := s.db.WithContext(ctx).Order("last_name, first_name").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return list, nil
}

// Student returns a student with their grades, newest first.
func (s *Service) Student(ctx context.Context, id uint) (models.Student, error) {
	var st models.Student
	err := s.db.WithContext(ctx).
		Preload("Grades", func(db *gorm.DB) *gorm.DB { return withRefs(db).Order("id DESC") }).
		First(&st, id).Error
	return st, notFound(err, "student", id)
}

func (s *Service) CreateStudent(ctx context.Context, in StudentInput) (models.Student, error) {
	var st models.Student
	if err := in.apply(&st); err != nil {
		return st, err
	}
	return st, save(s.db.WithContext(ctx).Create(&st).Error, "student")
}

func (s *Service) UpdateStudent(ctx context.Context, id uint, in StudentInput) (models.Student, error) {
	var st models.Student
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := notFound(tx.First(&st, id).Error, "student", id); err != nil {
			return err
		}
		if err := in.apply(&st); err != nil {
			return err
		}
		return save(tx.Omit("Grades").Save(&st).Error, "student")
	})
	return st, err
}

// DeleteStudent removes a student and their grades.
func (s *Service) DeleteStudent(ctx context.Context, id uint) error {
	return s.deleteWithGrades(ctx, &models.Student{}, "student_id", "student", id)
}

// ---- courses ----

type CourseInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in CourseInput) apply(c *models.Course) error {
	c.Name = strings.TrimSpace(in.Name)
	c.Description = strings.TrimSpace(in.Description)
	if c.Name == "" {
		return apperr.Invalid("name is required")
	}
	return nil
}

func (s *Service) Courses(ctx context.Context) ([]models.Course, error) {
	var list []models.Course
	if err := s.db.WithContext(ctx).Order("name").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return list, nil
}

func (s *Service) CreateCourse(ctx context.Context, in CourseInput) (models.Course, error) {
	var c models.Course
	if err := in.apply(&c); err != nil {
		return c, err
	}
	return c, save(s.db.WithContext(ctx).Create(&c).Error, "course")
}

func (s *Service) UpdateCourse(ctx context.Context, id uint, in CourseInput) (models.Course, error) {
	var c models.Course
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := notFound(tx.First(&c, id).Error, "course", id); err != nil {
			return err
		}
		if err := in.apply(&c); err != nil {
			return err
		}
		return save(tx.Omit("Grades").Save(&c).Error, "course")
	})
	return c, err
}

func (s *Service) DeleteCourse(ctx context.Context, id uint) error {
	return s.deleteWithGrades(ctx, &models.Course{}, "course_id", "course", id)
}

// ---- assignments ----

type AssignmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// DueDate is YYYY-MM-DD; empty clears it.
	DueDate   string `json:"due_date"`
	Completed bool   `json:"completed"`
}

func (in AssignmentInput) apply(a *models.Assignment) error {
	a.Name = strings.TrimSpace(in.Name)
	a.Description = strings.TrimSpace(in.Description)
	a.Completed = in.Completed
	if a.Name == "" {
		return apperr.Invalid("name is required")
	}
	a.DueDate = nil
	if raw := strings.TrimSpace(in.DueDate); raw != "" {
		due, err := time.Parse(DateLayout, raw)
		if err != nil {
			return apperr.Invalid("invalid due_date %q, use YYYY-MM-DD", raw)
		}
		a.DueDate = &due
	}
	return nil
}

// Assignments lists by due date, latest first, undated last.
func (s *Service) Assignments(ctx context.Context) ([]models.Assignment, error) {
	var list []models.Assignment
	err := s.db.WithContext(ctx).Order("due_date IS NULL, due_date DESC, id").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return list, nil
}

func (s *Service) CreateAssignment(ctx context.Context, in AssignmentInput) (models.Assignment, error) {
	var a models.Assignment
	if err := in.apply(&a); err != nil {
		return a, err
	}
	return a, save(s.db.WithContext(ctx).Create(&a).Error, "assignment")
}

func (s *Service) UpdateAssignment(ctx context.Context, id uint, in AssignmentInput) (models.Assignment, error) {
	var a models.Assignment
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := notFound(tx.First(&a, id).Error, "assignment", id); err != nil {
			return err
		}
		if err := in.apply(&a); err != nil {
			return err
		}
		return save(tx.Omit("Grades").Save(&a).Error, "assignment")
	})
	return a, err
}

func (s *Service) DeleteAssignment(ctx context.Context, id uint) error {
	return s.deleteWithGrades(ctx, &models.Assignment{}, "assignment_id", "assignment", id)
}

// ---- grades ----

type GradeInput struct {
	Value        *float64 `json:"value"`
	StudentID    uint     `json:"student_id"`
	CourseID     uint     `json:"course_id"`
	AssignmentID uint     `json:"assignment_id"`
}

func (s *Service) Grades(ctx context.Context) ([]models.Grade, error) {
	var list []models.Grade
	if err := withRefs(s.db.WithContext(ctx)).Order("id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	return list, nil
}

func (s *Service) CreateGrade(ctx context.Context, in GradeInput) (models.Grade, error) {
	if in.Value == nil {
		return models.Grade{}, apperr.Invalid("value must be numeric")
	}
	if in.StudentID == 0 || in.CourseID == 0 || in.AssignmentID == 0 {
		return models.Grade{}, apperr.Invalid("student_id, course_id and assignment_id are required")
	}
	g := models.Grade{Value: *in.Value, StudentID: in.StudentID, CourseID: in.CourseID, AssignmentID: in.AssignmentID}
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		for _, ref := range []struct {
			model any
			name  string
			id    uint
		}{
			{&models.Student{}, "student", in.StudentID},
			{&models.Course{}, "course", in.CourseID},
			{&models.Assignment{}, "assignment", in.AssignmentID},
		} {
			if err := notFound(tx.Select("id").First(ref.model, ref.id).Error, ref.name, ref.id); err != nil {
				return err
			}
		}
		return save(tx.Create(&g).Error, "grade")
	})
	return g, err
}

// UpdateGrade changes only the value of a grade.
func (s *Service) UpdateGrade(ctx context.Context, id uint, value *float64) (models.Grade, error) {
	if value == nil {
		return models.Grade{}, apperr.Invalid("value must be numeric")
	}
	var g models.Grade
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := notFound(tx.First(&g, id).Error, "grade", id); err != nil {
			return err
		}
		g.Value = *value
		return save(tx.Model(&g).Update("value", g.Value).Error, "grade")
	})
	return g, err
}

func (s *Service) DeleteGrade(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Grade{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete grade %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("grade %d not found", id)
	}
	return nil
}

// deleteWithGrades removes the grades referencing a parent row, then the row.
func (s *Service) deleteWithGrades(ctx context.Context, model any, column, name string, id uint) error {
	return store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where(column+" = ?", id).Delete(&models.Grade{}).Error; err != nil {
			return fmt.Errorf("failed to delete grades of %s %d: %w", name, id, err)
		}
		res := tx.Delete(model, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete %s %d: %w", name, id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("%s %d not found", name, id)
		}
		return nil
	})
}

func withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Student").Preload("Course").Preload("Assignment")
}

func notFound(err error, name string, id uint) error {
	if store.IsNotFound(err) {
		return apperr.NotFound("%s %d not found", name, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s %d: %w", name, id, err)
	}
	return nil
}

func save(err error, name string) error {
	if store.IsDuplicate(err) {
		return apperr.Conflict("%s already exists", name)
	}
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}
