package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Hassan-Maher/Quizify/internal/config"
	"github.com/Hassan-Maher/Quizify/internal/middleware"
	"github.com/Hassan-Maher/Quizify/internal/models"
	"github.com/Hassan-Maher/Quizify/internal/response"
)

type QuizHandler struct {
	DB  *gorm.DB
	Cfg config.Config
}

func NewQuizHandler(db *gorm.DB, cfg config.Config) *QuizHandler {
	return &QuizHandler{DB: db, Cfg: cfg}
}

// createQuizPayload is the normalized shape of the create request, whether it
// arrived as JSON or as a multipart form. Questions stay raw until
// decodeCreateQuestions has run.
type createQuizPayload struct {
	Name                    string          `json:"name"`
	Subject                 string          `json:"subject"`
	Grade                   string          `json:"grade"`
	Visibility              string          `json:"visibility"`
	TimeLimit               *int            `json:"time_limit"`
	StartDate               string          `json:"start_date"`
	EndDate                 string          `json:"end_date"`
	MaxAttempts             *int            `json:"max_attempts"`
	ShowAnswerAfterQuestion *bool           `json:"show_answer_after_question"`
	CoverImage              string          `json:"cover_image"`
	Questions               json.RawMessage `json:"questions"`
}

type createQuestionInput struct {
	QuestionText  string   `json:"questionText"`
	Type          string   `json:"type"`
	Points        *float64 `json:"points"`
	CorrectAnswer any      `json:"correctAnswer"`
	Options       []string `json:"options"`
	Order         *int     `json:"order"`
}

type updateQuizRequest struct {
	Name                    *string `json:"name"`
	Subject                 *string `json:"subject"`
	Grade                   *string `json:"grade"`
	Visibility              *string `json:"visibility"`
	Status                  *string `json:"status"`
	TimeLimit               *int    `json:"time_limit"`
	StartDate               *string `json:"start_date"`
	EndDate                 *string `json:"end_date"`
	MaxAttempts             *int    `json:"max_attempts"`
	ShowAnswerAfterQuestion *bool   `json:"show_answer_after_question"`
	CoverImage              *string `json:"cover_image"`
}

type replaceQuestionInput struct {
	Type          string   `json:"type"`
	QuestionText  string   `json:"question_text"`
	Points        *int     `json:"points"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Order         *int     `json:"order"`
}

type replaceQuestionsRequest struct {
	Questions []replaceQuestionInput `json:"questions"`
}

type publishRequest struct {
	Status string `json:"status"`
}

func (h *QuizHandler) List(c *gin.Context) {
	query := h.DB.Order("created_at desc")
	if v := c.Query("instructor_id"); v != "" {
		query = query.Where("instructor_id = ?", v)
	}
	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}

	var quizzes []models.Quiz
	if err := query.Find(&quizzes).Error; err != nil {
		response.Send(c, http.StatusInternalServerError, "could not load quizzes", nil)
		return
	}
	response.Send(c, http.StatusOK, "quizzes retrieved successfully", quizzes)
}

func (h *QuizHandler) Create(c *gin.Context) {
	instructorID, ok := callerID(c)
	if !ok {
		response.Send(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	payload, fe := h.bindCreatePayload(c)
	if !fe.empty() {
		fe.send(c)
		return
	}

	questions, err := decodeCreateQuestions(payload.Questions)
	if err != nil {
		fe.add("questions", "the questions field must be an array or a JSON-encoded array")
		fe.send(c)
		return
	}

	startDate, endDate := validateCreateQuiz(payload, questions, fe)
	if !fe.empty() {
		fe.send(c)
		return
	}

	coverImage := payload.CoverImage
	if file, err := c.FormFile("cover_image"); err == nil {
		path := filepath.Join(h.Cfg.UploadDir, "quizzes", uuid.NewString()+filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, path); err != nil {
			response.Send(c, http.StatusInternalServerError, "cover image upload failed", nil)
			return
		}
		coverImage = path
	}

	maxAttempts := 1
	if payload.MaxAttempts != nil {
		maxAttempts = *payload.MaxAttempts
	}
	showAnswer := false
	if payload.ShowAnswerAfterQuestion != nil {
		showAnswer = *payload.ShowAnswerAfterQuestion
	}

	quiz := models.Quiz{
		InstructorID:            instructorID,
		Name:                    payload.Name,
		Subject:                 payload.Subject,
		Grade:                   payload.Grade,
		Visibility:              payload.Visibility,
		Status:                  models.StatusDraft,
		TimeLimit:               *payload.TimeLimit,
		StartDate:               startDate,
		EndDate:                 endDate,
		MaxAttempts:             maxAttempts,
		ShowAnswerAfterQuestion: showAnswer,
		CoverImage:              coverImage,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quiz).Error; err != nil {
			return err
		}
		for i, q := range questions {
			order := i
			if q.Order != nil {
				order = *q.Order
			}
			answer, _ := normalizeAnswer(q.CorrectAnswer)
			question := models.Question{
				QuizID:        quiz.ID,
				Type:          q.Type,
				QuestionText:  q.QuestionText,
				Points:        int(*q.Points),
				CorrectAnswer: answer,
				Order:         order,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
			for oi, text := range q.Options {
				option := models.QuestionOption{
					QuestionID: question.ID,
					OptionText: text,
					Order:      oi,
				}
				if err := tx.Create(&option).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "server error: "+err.Error(), nil)
		return
	}

	created, err := h.loadQuiz(quiz.ID)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "could not load quiz", nil)
		return
	}
	response.Send(c, http.StatusCreated, "quiz created successfully", created)
}

func (h *QuizHandler) Show(c *gin.Context) {
	quiz, err := h.loadQuiz(c.Param("id"))
	if err != nil {
		response.Send(c, http.StatusNotFound, "quiz not found", nil)
		return
	}
	response.Send(c, http.StatusOK, "quiz retrieved successfully", quiz)
}

func (h *QuizHandler) Update(c *gin.Context) {
	var quiz models.Quiz
	if err := h.DB.First(&quiz, "id = ?", c.Param("id")).Error; err != nil {
		response.Send(c, http.StatusNotFound, "quiz not found", nil)
		return
	}

	var req updateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, []string{"invalid request body"})
		return
	}

	fe := fieldErrors{}
	updates := map[string]any{}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			fe.add("name", "the name field must not be empty")
		}
		updates["name"] = *req.Name
	}
	if req.Subject != nil {
		if strings.TrimSpace(*req.Subject) == "" {
			fe.add("subject", "the subject field must not be empty")
		}
		updates["subject"] = *req.Subject
	}
	if req.Grade != nil {
		if strings.TrimSpace(*req.Grade) == "" {
			fe.add("grade", "the grade field must not be empty")
		}
		updates["grade"] = *req.Grade
	}
	if req.Visibility != nil {
		if *req.Visibility != models.VisibilityPublic && *req.Visibility != models.VisibilityRestricted {
			fe.add("visibility", "the visibility field must be Public or Restricted")
		}
		updates["visibility"] = *req.Visibility
	}
	if req.Status != nil {
		switch *req.Status {
		case models.StatusDraft, models.StatusArchived, models.StatusRunning, models.StatusCompleted:
			updates["status"] = *req.Status
		default:
			fe.add("status", "the status field must be Draft, Archived, Running or Completed")
		}
	}
	if req.TimeLimit != nil {
		if *req.TimeLimit < 1 {
			fe.add("time_limit", "the time_limit field must be at least 1")
		}
		updates["time_limit"] = *req.TimeLimit
	}
	if req.MaxAttempts != nil {
		if *req.MaxAttempts < 1 {
			fe.add("max_attempts", "the max_attempts field must be at least 1")
		}
		updates["max_attempts"] = *req.MaxAttempts
	}
	if req.ShowAnswerAfterQuestion != nil {
		updates["show_answer_after_question"] = *req.ShowAnswerAfterQuestion
	}
	if req.CoverImage != nil {
		updates["cover_image"] = *req.CoverImage
	}

	startDate := quiz.StartDate
	endDate := quiz.EndDate
	if req.StartDate != nil {
		parsed, ok := parseDate(*req.StartDate)
		if !ok {
			fe.add("start_date", "the start_date field must be a valid date")
		} else {
			startDate = parsed
			updates["start_date"] = parsed
		}
	}
	if req.EndDate != nil {
		parsed, ok := parseDate(*req.EndDate)
		if !ok {
			fe.add("end_date", "the end_date field must be a valid date")
		} else {
			endDate = parsed
			updates["end_date"] = parsed
		}
	}
	if (req.StartDate != nil || req.EndDate != nil) && !endDate.After(startDate) {
		fe.add("end_date", "the end_date field must be after start_date")
	}

	if !fe.empty() {
		fe.send(c)
		return
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&quiz).Updates(updates).Error; err != nil {
			response.Send(c, http.StatusInternalServerError, "update failed", nil)
			return
		}
	}

	if err := h.DB.First(&quiz, "id = ?", quiz.ID).Error; err != nil {
		response.Send(c, http.StatusInternalServerError, "could not load quiz", nil)
		return
	}
	response.Send(c, http.StatusOK, "quiz updated successfully", quiz)
}

func (h *QuizHandler) Destroy(c *gin.Context) {
	var quiz models.Quiz
	if err := h.DB.First(&quiz, "id = ?", c.Param("id")).Error; err != nil {
		response.Send(c, http.StatusNotFound, "quiz not found", nil)
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteQuizQuestions(tx, quiz.ID); err != nil {
			return err
		}
		return tx.Delete(&models.Quiz{}, "id = ?", quiz.ID).Error
	})
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "delete failed", nil)
		return
	}

	response.Send(c, http.StatusOK, "quiz deleted successfully", nil)
}

func (h *QuizHandler) ReplaceQuestions(c *gin.Context) {
	var quiz models.Quiz
	if err := h.DB.First(&quiz, "id = ?", c.Param("id")).Error; err != nil {
		response.Send(c, http.StatusNotFound, "quiz not found", nil)
		return
	}

	var req replaceQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, []string{"invalid request body"})
		return
	}

	fe := fieldErrors{}
	if len(req.Questions) == 0 {
		fe.add("questions", "the questions field is required")
	}
	for i, q := range req.Questions {
		key := func(field string) string { return fmt.Sprintf("questions.%d.%s", i, field) }
		switch q.Type {
		case models.QuestionMultipleChoice, models.QuestionFillInTheBlanks, models.QuestionTrueFalse:
		default:
			fe.add(key("type"), "the type field must be multiple-choice, fill-in-the-blanks or true-false")
		}
		if strings.TrimSpace(q.QuestionText) == "" {
			fe.add(key("question_text"), "the question_text field is required")
		}
		if q.Points == nil {
			fe.add(key("points"), "the points field is required")
		} else if *q.Points < 1 {
			fe.add(key("points"), "the points field must be at least 1")
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			fe.add(key("correct_answer"), "the correct_answer field is required")
		}
		if q.Order == nil {
			fe.add(key("order"), "the order field is required")
		}
	}
	if !fe.empty() {
		fe.send(c)
		return
	}

	// Destructive replace: the old set never survives alongside the new one.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteQuizQuestions(tx, quiz.ID); err != nil {
			return err
		}
		for _, q := range req.Questions {
			question := models.Question{
				QuizID:        quiz.ID,
				Type:          q.Type,
				QuestionText:  q.QuestionText,
				Points:        *q.Points,
				CorrectAnswer: q.CorrectAnswer,
				Order:         *q.Order,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
			for oi, text := range q.Options {
				option := models.QuestionOption{
					QuestionID: question.ID,
					OptionText: text,
					Order:      oi,
				}
				if err := tx.Create(&option).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "server error: "+err.Error(), nil)
		return
	}

	updated, err := h.loadQuiz(quiz.ID)
	if err != nil {
		response.Send(c, http.StatusInternalServerError, "could not load quiz", nil)
		return
	}
	response.Send(c, http.StatusOK, "questions updated successfully", updated)
}

// Publish moves a quiz to Archived or Running. Any current status is accepted
// as a predecessor; tightening this would change observed behavior.
func (h *QuizHandler) Publish(c *gin.Context) {
	var quiz models.Quiz
	if err := h.DB.First(&quiz, "id = ?", c.Param("id")).Error; err != nil {
		response.Send(c, http.StatusNotFound, "quiz not found", nil)
		return
	}

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, []string{"invalid request body"})
		return
	}
	if req.Status != models.StatusArchived && req.Status != models.StatusRunning {
		fe := fieldErrors{}
		fe.add("status", "the status field must be Archived or Running")
		fe.send(c)
		return
	}

	if err := h.DB.Model(&quiz).Update("status", req.Status).Error; err != nil {
		response.Send(c, http.StatusInternalServerError, "update failed", nil)
		return
	}

	quiz.Status = req.Status
	response.Send(c, http.StatusOK, "quiz status updated successfully", quiz)
}

func (h *QuizHandler) loadQuiz(id any) (models.Quiz, error) {
	var quiz models.Quiz
	err := h.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("`order` asc") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("`order` asc") }).
		First(&quiz, "id = ?", id).Error
	return quiz, err
}

func deleteQuizQuestions(tx *gorm.DB, quizID uuid.UUID) error {
	questionIDs := tx.Model(&models.Question{}).Select("id").Where("quiz_id = ?", quizID)
	if err := tx.Where("question_id IN (?)", questionIDs).Delete(&models.QuestionOption{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Question{}, "quiz_id = ?", quizID).Error
}

// bindCreatePayload reads the create request from either a JSON body or a
// multipart form, so the rest of the handler only ever sees one shape.
func (h *QuizHandler) bindCreatePayload(c *gin.Context) (createQuizPayload, fieldErrors) {
	fe := fieldErrors{}
	var payload createQuizPayload

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		payload.Name = c.PostForm("name")
		payload.Subject = c.PostForm("subject")
		payload.Grade = c.PostForm("grade")
		payload.Visibility = c.PostForm("visibility")
		payload.StartDate = c.PostForm("start_date")
		payload.EndDate = c.PostForm("end_date")
		payload.CoverImage = c.PostForm("cover_image")
		payload.Questions = json.RawMessage(c.PostForm("questions"))

		if v := c.PostForm("time_limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				fe.add("time_limit", "the time_limit field must be an integer")
			} else {
				payload.TimeLimit = &parsed
			}
		}
		if v := c.PostForm("max_attempts"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				fe.add("max_attempts", "the max_attempts field must be an integer")
			} else {
				payload.MaxAttempts = &parsed
			}
		}
		if v := c.PostForm("show_answer_after_question"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				fe.add("show_answer_after_question", "the show_answer_after_question field must be a boolean")
			} else {
				payload.ShowAnswerAfterQuestion = &parsed
			}
		}
		return payload, fe
	}

	if err := c.ShouldBindJSON(&payload); err != nil {
		fe.add("body", "invalid request body")
	}
	return payload, fe
}

// decodeCreateQuestions accepts the questions value either as a structured
// array or as a JSON-encoded string (multipart forms send the latter).
func decodeCreateQuestions(raw json.RawMessage) ([]createQuestionInput, error) {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, err
		}
		data = []byte(inner)
	}

	var questions []createQuestionInput
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func validateCreateQuiz(p createQuizPayload, questions []createQuestionInput, fe fieldErrors) (time.Time, time.Time) {
	if strings.TrimSpace(p.Name) == "" {
		fe.add("name", "the name field is required")
	}
	if strings.TrimSpace(p.Subject) == "" {
		fe.add("subject", "the subject field is required")
	}
	if strings.TrimSpace(p.Grade) == "" {
		fe.add("grade", "the grade field is required")
	}
	if p.Visibility != models.VisibilityPublic && p.Visibility != models.VisibilityRestricted {
		fe.add("visibility", "the visibility field must be Public or Restricted")
	}
	if p.TimeLimit == nil {
		fe.add("time_limit", "the time_limit field is required")
	} else if *p.TimeLimit < 1 {
		fe.add("time_limit", "the time_limit field must be at least 1")
	}
	if p.MaxAttempts != nil && *p.MaxAttempts < 1 {
		fe.add("max_attempts", "the max_attempts field must be at least 1")
	}

	var startDate, endDate time.Time
	if p.StartDate == "" {
		fe.add("start_date", "the start_date field is required")
	} else {
		parsed, ok := parseDate(p.StartDate)
		if !ok {
			fe.add("start_date", "the start_date field must be a valid date")
		}
		startDate = parsed
	}
	if p.EndDate == "" {
		fe.add("end_date", "the end_date field is required")
	} else {
		parsed, ok := parseDate(p.EndDate)
		if !ok {
			fe.add("end_date", "the end_date field must be a valid date")
		}
		endDate = parsed
	}
	if !startDate.IsZero() && !endDate.IsZero() && !endDate.After(startDate) {
		fe.add("end_date", "the end_date field must be after start_date")
	}

	if len(questions) == 0 {
		fe.add("questions", "the questions field is required and must contain at least one question")
	}
	for i, q := range questions {
		key := func(field string) string { return fmt.Sprintf("questions.%d.%s", i, field) }
		if strings.TrimSpace(q.QuestionText) == "" {
			fe.add(key("questionText"), "the questionText field is required")
		}
		if strings.TrimSpace(q.Type) == "" {
			fe.add(key("type"), "the type field is required")
		}
		if q.Points == nil {
			fe.add(key("points"), "the points field is required")
		}
		if _, ok := normalizeAnswer(q.CorrectAnswer); !ok {
			fe.add(key("correctAnswer"), "the correctAnswer field is required")
		}
	}

	return startDate, endDate
}

// normalizeAnswer stores booleans as the literal strings "true"/"false" and
// renders numbers as text; everything else is taken verbatim.
func normalizeAnswer(v any) (string, bool) {
	switch a := v.(type) {
	case nil:
		return "", false
	case bool:
		if a {
			return "true", true
		}
		return "false", true
	case string:
		return a, strings.TrimSpace(a) != ""
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64), true
	case json.Number:
		return a.String(), true
	default:
		return fmt.Sprintf("%v", a), true
	}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
