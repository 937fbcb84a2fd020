package http

import (
	"time"

	"quiz-api/internal/domain"
)

const (
	typeQuizzes      = "quizzes"
	typeQuestions    = "questions"
	typeQuizAttempts = "quiz-attempts"
	typeAnswers      = "answers"
)

type document struct {
	Data     any        `json:"data"`
	Included []resource `json:"included,omitempty"`
	Meta     any        `json:"meta,omitempty"`
}

type resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    any                     `json:"attributes,omitempty"`
	Relationships map[string]relationship `json:"relationships,omitempty"`
}

type relationship struct {
	Data []resource `json:"data"`
}

type quizAttributes struct {
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Instructions      string    `json:"instructions"`
	PointsPerQuestion int       `json:"pointsPerQuestion"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func quizResource(q domain.Quiz) resource {
	return resource{
		Type: typeQuizzes,
		ID:   q.ID,
		Attributes: quizAttributes{
			Title:             q.Title,
			Description:       q.Description,
			Instructions:      q.Instructions,
			PointsPerQuestion: q.PointsPerQuestion,
			CreatedAt:         q.CreatedAt,
			UpdatedAt:         q.UpdatedAt,
		},
	}
}

type questionAttributes struct {
	QuizIDs       []string            `json:"quizIds"`
	Text          string              `json:"text"`
	QuestionType  domain.QuestionType `json:"questionType"`
	Choices       []domain.Choice     `json:"choices,omitempty"`
	CorrectAnswer string              `json:"correctAnswer,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func questionResource(q domain.Question) resource {
	quizIDs := q.QuizIDs
	if quizIDs == nil {
		quizIDs = []string{}
	}
	return resource{
		Type: typeQuestions,
		ID:   q.ID,
		Attributes: questionAttributes{
			QuizIDs:       quizIDs,
			Text:          q.Text,
			QuestionType:  q.Type,
			Choices:       q.Choices,
			CorrectAnswer: q.CorrectAnswer,
			CreatedAt:     q.CreatedAt,
			UpdatedAt:     q.UpdatedAt,
		},
	}
}

func questionResources(questions []domain.Question) []resource {
	out := make([]resource, 0, len(questions))
	for _, q := range questions {
		out = append(out, questionResource(q))
	}
	return out
}

// playQuestionAttributes never carries correctness data.
type playQuestionAttributes struct {
	Text    string              `json:"text"`
	Type    domain.QuestionType `json:"type"`
	Choices []string            `json:"choices,omitempty"`
}

type playAttributes struct {
	QuizID         string               `json:"quizId"`
	QuizTitle      string               `json:"quizTitle"`
	PlayerName     string               `json:"playerName,omitempty"`
	PlayerEmail    string               `json:"playerEmail,omitempty"`
	Status         domain.AttemptStatus `json:"status"`
	Score          int                  `json:"score"`
	TotalQuestions int                  `json:"totalQuestions"`
	StartedAt      time.Time            `json:"startedAt"`
	ExpiresAt      *time.Time           `json:"expiresAt,omitempty"`
}

func playResource(s domain.PlaySession) resource {
	questions := make([]resource, 0, len(s.Questions))
	for _, q := range s.Questions {
		attrs := playQuestionAttributes{Text: q.Text, Type: q.Type}
		if q.Type == domain.QuestionTypeMultipleChoice {
			attrs.Choices = q.ChoiceTexts()
		}
		questions = append(questions, resource{Type: typeQuestions, ID: q.ID, Attributes: attrs})
	}
	return resource{
		Type: typeQuizAttempts,
		ID:   s.Attempt.ID,
		Attributes: playAttributes{
			QuizID:         s.Attempt.QuizID,
			QuizTitle:      s.QuizTitle,
			PlayerName:     s.Attempt.PlayerName,
			PlayerEmail:    s.Attempt.PlayerEmail,
			Status:         s.Attempt.Status,
			Score:          s.Attempt.Score,
			TotalQuestions: s.TotalQuestions,
			StartedAt:      s.Attempt.StartedAt,
			ExpiresAt:      s.ExpiresAt,
		},
		Relationships: map[string]relationship{
			"questions": {Data: questions},
		},
	}
}

type answerAttributes struct {
	QuestionID   string `json:"questionId"`
	Answer       string `json:"answer"`
	IsCorrect    bool   `json:"isCorrect"`
	PointsEarned int    `json:"pointsEarned"`
	CurrentScore int    `json:"currentScore"`
}

func answerResource(r domain.AnswerResult) resource {
	return resource{
		Type: typeAnswers,
		ID:   r.AttemptID + "-" + r.QuestionID,
		Attributes: answerAttributes{
			QuestionID:   r.QuestionID,
			Answer:       r.Answer,
			IsCorrect:    r.IsCorrect,
			PointsEarned: r.PointsEarned,
			CurrentScore: r.CurrentScore,
		},
	}
}

type completionAttributes struct {
	Status           domain.AttemptStatus `json:"status"`
	Score            int                  `json:"score"`
	TotalAnswers     int                  `json:"totalAnswers"`
	CorrectAnswers   int                  `json:"correctAnswers"`
	Accuracy         int                  `json:"accuracy"`
	CompletedAt      *time.Time           `json:"completedAt"`
	TimeSpentSeconds int                  `json:"timeSpentSeconds"`
}

func completionResource(s domain.CompletionSummary) resource {
	return resource{
		Type: typeQuizAttempts,
		ID:   s.Attempt.ID,
		Attributes: completionAttributes{
			Status:           s.Attempt.Status,
			Score:            s.Attempt.Score,
			TotalAnswers:     s.TotalAnswers,
			CorrectAnswers:   s.CorrectAnswers,
			Accuracy:         s.Accuracy,
			CompletedAt:      s.Attempt.CompletedAt,
			TimeSpentSeconds: s.Attempt.TimeSpentSeconds,
		},
	}
}

type attemptAttributes struct {
	QuizID           string                 `json:"quizId"`
	PlayerName       string                 `json:"playerName,omitempty"`
	PlayerEmail      string                 `json:"playerEmail,omitempty"`
	Status           domain.AttemptStatus   `json:"status"`
	Score            int                    `json:"score"`
	TotalQuestions   *int                   `json:"totalQuestions,omitempty"`
	Answers          []domain.AttemptAnswer `json:"answers"`
	StartedAt        time.Time              `json:"startedAt"`
	CreatedAt        time.Time              `json:"createdAt"`
	CompletedAt      *time.Time             `json:"completedAt,omitempty"`
	AbandonedAt      *time.Time             `json:"abandonedAt,omitempty"`
	ExpiresAt        *time.Time             `json:"expiresAt,omitempty"`
	TimeSpentSeconds int                    `json:"timeSpentSeconds"`
}

func attemptResource(a domain.Attempt) resource {
	answers := a.Answers
	if answers == nil {
		answers = []domain.AttemptAnswer{}
	}
	return resource{
		Type: typeQuizAttempts,
		ID:   a.ID,
		Attributes: attemptAttributes{
			QuizID:           a.QuizID,
			PlayerName:       a.PlayerName,
			PlayerEmail:      a.PlayerEmail,
			Status:           a.Status,
			Score:            a.Score,
			Answers:          answers,
			StartedAt:        a.StartedAt,
			CreatedAt:        a.CreatedAt,
			CompletedAt:      a.CompletedAt,
			AbandonedAt:      a.AbandonedAt,
			TimeSpentSeconds: a.TimeSpentSeconds,
		},
	}
}

func attemptResources(attempts []domain.Attempt) []resource {
	out := make([]resource, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptResource(a))
	}
	return out
}

func attemptViewResource(v domain.AttemptView) resource {
	res := attemptResource(v.Attempt)
	attrs := res.Attributes.(attemptAttributes)
	total := v.TotalQuestions
	attrs.TotalQuestions = &total
	attrs.ExpiresAt = v.ExpiresAt
	res.Attributes = attrs
	return res
}

type leaderboardAttributes struct {
	Rank             int        `json:"rank"`
	PlayerName       string     `json:"playerName,omitempty"`
	Score            int        `json:"score"`
	CorrectAnswers   int        `json:"correctAnswers"`
	TotalAnswers     int        `json:"totalAnswers"`
	TimeSpentSeconds int        `json:"timeSpentSeconds"`
	CompletedAt      *time.Time `json:"completedAt"`
}

func leaderboardResources(attempts []domain.Attempt) []resource {
	out := make([]resource, 0, len(attempts))
	for i, a := range attempts {
		out = append(out, resource{
			Type: typeQuizAttempts,
			ID:   a.ID,
			Attributes: leaderboardAttributes{
				Rank:             i + 1,
				PlayerName:       a.PlayerName,
				Score:            a.Score,
				CorrectAnswers:   a.CorrectAnswers(),
				TotalAnswers:     len(a.Answers),
				TimeSpentSeconds: a.TimeSpentSeconds,
				CompletedAt:      a.CompletedAt,
			},
		})
	}
	return out
}
