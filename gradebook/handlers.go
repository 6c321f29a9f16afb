package gradebook

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/logger"
)

type Handler struct {
	svc *Service
	log *logrus.Entry
}

func NewHandler(svc *Service, log *logrus.Entry) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/summary", h.summary)

	r.GET("/students", h.listStudents)
	r.POST("/students", h.createStudent)
	r.GET("/students/:id", h.getStudent)
	r.PUT("/students/:id", h.updateStudent)
	r.DELETE("/students/:id", h.deleteStudent)

	r.GET("/courses", h.listCourses)
	r.POST("/courses", h.createCourse)
	r.PUT("/courses/:id", h.updateCourse)
	r.DELETE("/courses/:id", h.deleteCourse)

	r.GET("/assignments", h.listAssignments)
	r.POST("/assignments", h.createAssignment)
	r.PUT("/assignments/:id", h.updateAssignment)
	r.DELETE("/assignments/:id", h.deleteAssignment)

	r.GET("/grades", h.listGrades)
	r.POST("/grades", h.createGrade)
	r.PUT("/grades/:id", h.updateGrade)
	r.DELETE("/grades/:id", h.deleteGrade)
}

func (h *Handler) respond(c *gin.Context, status int, v any, err error) {
	if err != nil {
		code := apperr.HTTPStatus(err)
		if code >= http.StatusInternalServerError {
			logger.RequestLogger(c, h.log).WithError(err).Error("request failed")
		}
		c.JSON(code, gin.H{"error": apperr.Message(err)})
		return
	}
	c.JSON(status, v)
}

func bind(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.KindInvalid, err, "invalid request body")
	}
	return nil
}

func id(c *gin.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || n == 0 {
		return 0, apperr.Invalid("invalid id %q", c.Param("id"))
	}
	return uint(n), nil
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context())
	h.respond(c, http.StatusOK, sum, err)
}

func (h *Handler) listStudents(c *gin.Context) {
	list, err := h.svc.Students(c.Request.Context())
	h.respond(c, http.StatusOK, list, err)
}

func (h *Handler) getStudent(c *gin.Context) {
	sid, err := id(c)
	if err != nil {
		h.respond(c, 0, nil, err)
		return
	}
	st, err := h.svc.Student(c.Request.Context(), sid)
	h.respond(c, http.StatusOK, st, err)
}

func (h *Handler) createStudent(c *gin.Context) {
	var in StudentInput
	if err := bind(c, &in); err != nil {
		h.respond(c, 0, nil, err)
		return
	}
	st, err := h.svc.CreateStudent(c.Request.Context(), in)
	h.respond(c, http.StatusCreated, st, err)
}

func (h *Handler) updateStudent(c *gin.Context) {
	sid, err := id(c)
	if err == nil {
		var in StudentInput
		if err = bind(c, &in); err == nil {
			st, err := h.svc.UpdateStudent(c.Request.Context(), sid, in)
			h.respond(c, http.StatusOK, st, err)
			return
		}
	}
	h.respond(c, 0, nil, err)
}

func (h *Handler) deleteStudent(c *gin.Context) {
	sid, err := id(c)
	if err == nil {
		err = h.svc.DeleteStudent(c.Request.Context(), sid)
	}
	h.respond(c, http.StatusOK, gin.H{"message": "student deleted"}, err)
}

func (h *Handler) listCourses(c *gin.Context) {
	list, err := h.svc.Courses(c.Request.Context())
	h.respond(c, http.StatusOK, list, err)
}

func (h *Handler) createCourse(c *gin.Context) {
	var in CourseInput
	if err := bind(c, &in); err != nil {
		h.respond(c, 0, nil, err)
		return
	}
	course, err := h.svc.CreateCourse(c.Request.Context(), in)
	h.respond(c, http.StatusCreated, course, err)
}

func (h *Handler) updateCourse(c *gin.Context) {
	cid, err := id(c)
	if err == nil {
		var in CourseInput
		if err = bind(c, &in); err == nil {
			course, err := h.svc.UpdateCourse(c.Request.Context(), cid, in)
			h.respond(c, http.StatusOK, course, err)
			return
		}
	}
	h.respond(c, 0, nil, err)
}

func (h *Handler) deleteCourse(c *gin.Context) {
	cid, err := id(c)
	if err == nil {
		err = h.svc.DeleteCourse(c.Request.Context(), cid)
	}
	h.respond(c, http.StatusOK, gin.H{"message": "course deleted"}, err)
}

func (h *Handler) listAssignments(c *gin.Context) {
	list, err := h.svc.Assignments(c.Request.Context())
	h.respond(c, http.StatusOK, list, err)
}

func (h *Handler) createAssignment(c *gin.Context) {
	var in AssignmentInput
	if err := bind(c, &in); err != nil {
		h.respond(c, 0, nil, err)
		return
	}
	a, err := h.svc.CreateAssignment(c.Request.Context(), in)
	h.respond(c, http.StatusCreated, a, err)
}

func (h *Handler) updateAssignment(c *gin.Context) {
	aid, err := id(c)
	if err == nil {
		var in AssignmentInput
		if err = bind(c, &in); err == nil {
			a, err := h.svc.UpdateAssignment(c.Request.Context(), aid, in)
			h.respond(c, http.StatusOK, a, err)
			return
		}
	}
	h.respond(c, 0, nil, err)
}

func (h *Handler) deleteAssignment(c *gin.Context) {
	aid, err := id(c)
	if err == nil {
		err = h.svc.DeleteAssignment(c.Request.Context(), aid)
	}
	h.respond(c, http.StatusOK, gin.H{"message": "assignment deleted"}, err)
}

func (h *Handler) listGrades(c *gin.Context) {
	list, err := h.svc.Grades(c.Request.Context())
	h.respond(c, http.StatusOK, list, err)
}

func (h *Handler) createGrade(c *gin.Context) {
	var in GradeInput
	if err := bind(c, &in); err != nil {
		h.respond(c, 0, nil, err)
		return
	}
	g, err := h.svc.CreateGrade(c.Request.Context(), in)
	h.respond(c, http.StatusCreated, g, err)
}

func (h *Handler) updateGrade(c *gin.Context) {
	gid, err := id(c)
	if err == nil {
		var in struct {
			Value *float64 `json:"value"`
		}
		if err = bind(c, &in); err == nil {
			g, err := h.svc.UpdateGrade(c.Request.Context(), gid, in.Value)
			h.respond(c, http.StatusOK, g, err)
			return
		}
	}
	h.respond(c, 0, nil, err)
}

func (h *Handler) deleteGrade(c *gin.Context) {
	gid, err := id(c)
	if err == nil {
		err = h.svc.DeleteGrade(c.Request.Context(), gid)
	}
	h.respond(c, http.StatusOK, gin.H{"message": "grade deleted"}, err)
}
