package domain

import "time"

// DefaultPointsPerQuestion is the fixed award for a correct answer.
const DefaultPointsPerQuestion = 10

// QuestionType distinguishes how an answer is graded.
type QuestionType string

const (
	QuestionTypeFreeText       QuestionType = "free-text"
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
)

// AttemptStatus is the state of a quiz attempt.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// Quiz holds quiz metadata. Questions reference quizzes, not the other way round.
type Quiz struct {
	ID                string    `json:"id" bson:"_id"`
	Title             string    `json:"title" bson:"title" validate:"required"`
	Description       string    `json:"description" bson:"description" validate:"required"`
	Instructions      string    `json:"instructions" bson:"instructions" validate:"required"`
	PointsPerQuestion int       `json:"pointsPerQuestion" bson:"pointsPerQuestion" validate:"gte=0"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Points returns the quiz's own points per correct answer, falling back to the default.
// Attempts only use it when per-quiz points are enabled.
func (q Quiz) Points() int {
	if q.PointsPerQuestion > 0 {
		return q.PointsPerQuestion
	}
	return DefaultPointsPerQuestion
}

// QuizPatch carries a partial quiz update; nil fields are left untouched.
type QuizPatch struct {
	Title             *string
	Description       *string
	Instructions      *string
	PointsPerQuestion *int
}

// Apply merges the patch into quiz.
func (p QuizPatch) Apply(quiz *Quiz) {
	if p.Title != nil {
		quiz.Title = *p.Title
	}
	if p.Description != nil {
		quiz.Description = *p.Description
	}
	if p.Instructions != nil {
		quiz.Instructions = *p.Instructions
	}
	if p.PointsPerQuestion != nil {
		quiz.PointsPerQuestion = *p.PointsPerQuestion
	}
}

// Choice is one option of a multiple-choice question.
type Choice struct {
	Text      string `json:"text" bson:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect" bson:"isCorrect"`
}

// Question models a free-text or multiple-choice question linked to any number of quizzes.
type Question struct {
	ID            string       `json:"id" bson:"_id"`
	QuizIDs       []string     `json:"quizIds" bson:"quizIds"`
	Text          string       `json:"text" bson:"text" validate:"required"`
	Type          QuestionType `json:"type" bson:"type" validate:"required,oneof=free-text multiple-choice"`
	Choices       []Choice     `json:"choices,omitempty" bson:"choices,omitempty" validate:"dive"`
	CorrectAnswer string       `json:"correctAnswer,omitempty" bson:"correctAnswer,omitempty"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// BelongsTo reports whether quizID is in the question's quiz set.
func (q Question) BelongsTo(quizID string) bool {
	for _, id := range q.QuizIDs {
		if id == quizID {
			return true
		}
	}
	return false
}

// ChoiceTexts returns the choice texts without their correctness flags.
func (q Question) ChoiceTexts() []string {
	texts := make([]string, 0, len(q.Choices))
	for _, c := range q.Choices {
		texts = append(texts, c.Text)
	}
	return texts
}

// QuestionPatch carries a partial question update; nil fields are left untouched.
type QuestionPatch struct {
	QuizIDs       *[]string
	Text          *string
	Type          *QuestionType
	Choices       *[]Choice
	CorrectAnswer *string
}

// Apply merges the patch into question.
func (p QuestionPatch) Apply(question *Question) {
	if p.QuizIDs != nil {
		question.QuizIDs = UniqueIDs(*p.QuizIDs)
	}
	if p.Text != nil {
		question.Text = *p.Text
	}
	if p.Type != nil {
		question.Type = *p.Type
	}
	if p.Choices != nil {
		question.Choices = *p.Choices
	}
	if p.CorrectAnswer != nil {
		question.CorrectAnswer = *p.CorrectAnswer
	}
}

// QuestionFilter narrows question listings. An empty QuizID matches every question.
type QuestionFilter struct {
	QuizID string
}

// UniqueIDs drops empty and repeated ids, keeping first-seen order.
func UniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// AttemptAnswer is one graded answer recorded on an attempt.
type AttemptAnswer struct {
	QuestionID string    `json:"questionId" bson:"questionId"`
	Answer     string    `json:"answer" bson:"answer"`
	IsCorrect  bool      `json:"isCorrect" bson:"isCorrect"`
	AnsweredAt time.Time `json:"answeredAt" bson:"answeredAt"`
}

// Player identifies who plays an attempt. Both fields are optional.
type Player struct {
	Name  string
	Email string
}

// Attempt is a single play-through of a quiz.
type Attempt struct {
	ID               string          `json:"id" bson:"_id"`
	QuizID           string          `json:"quizId" bson:"quizId"`
	PlayerName       string          `json:"playerName,omitempty" bson:"playerName,omitempty"`
	PlayerEmail      string          `json:"playerEmail,omitempty" bson:"playerEmail,omitempty"`
	Status           AttemptStatus   `json:"status" bson:"status"`
	Score            int             `json:"score" bson:"score"`
	PointsPerAnswer  int             `json:"pointsPerAnswer" bson:"pointsPerAnswer"`
	Answers          []AttemptAnswer `json:"answers" bson:"answers"`
	StartedAt        time.Time       `json:"startedAt" bson:"startedAt"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	AbandonedAt      *time.Time      `json:"abandonedAt,omitempty" bson:"abandonedAt,omitempty"`
	TimeSpentSeconds int             `json:"timeSpentSeconds" bson:"timeSpentSeconds"`
	Version          int             `json:"version" bson:"version"`
	CreatedAt        time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// HasAnswer reports whether questionID was already answered in this attempt.
func (a Attempt) HasAnswer(questionID string) bool {
	for _, ans := range a.Answers {
		if ans.QuestionID == questionID {
			return true
		}
	}
	return false
}

// CorrectAnswers counts the answers graded correct.
func (a Attempt) CorrectAnswers() int {
	n := 0
	for _, ans := range a.Answers {
		if ans.IsCorrect {
			n++
		}
	}
	return n
}

// RecomputeScore derives the score from the recorded answers.
func (a Attempt) RecomputeScore() int {
	return a.points() * a.CorrectAnswers()
}

func (a Attempt) points() int {
	if a.PointsPerAnswer > 0 {
		return a.PointsPerAnswer
	}
	return DefaultPointsPerQuestion
}

// PointsFor returns the points earned by an answer with the given verdict.
func (a Attempt) PointsFor(correct bool) int {
	if !correct {
		return 0
	}
	return a.points()
}

// Accuracy is round-half-up(100 * correct / total), 0 when nothing was answered.
func (a Attempt) Accuracy() int {
	return Accuracy(a.CorrectAnswers(), len(a.Answers))
}

// Accuracy returns the rounded percentage of correct out of total.
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// ExpiresAt returns when an in-progress attempt times out, or nil when ttl disables expiry.
func (a Attempt) ExpiresAt(ttl time.Duration) *time.Time {
	if ttl <= 0 || a.Status != AttemptInProgress {
		return nil
	}
	t := a.StartedAt.Add(ttl)
	return &t
}

// Expired reports whether the attempt ran past ttl at now.
func (a Attempt) Expired(ttl time.Duration, now time.Time) bool {
	exp := a.ExpiresAt(ttl)
	return exp != nil && !now.Before(*exp)
}

// PlaySession is what a client receives when it starts playing a quiz.
type PlaySession struct {
	Attempt        Attempt
	QuizTitle      string
	Questions      []Question
	TotalQuestions int
	ExpiresAt      *time.Time
}

// AnswerResult summarizes the outcome of a single submission.
type AnswerResult struct {
	AttemptID    string
	QuestionID   string
	Answer       string
	IsCorrect    bool
	PointsEarned int
	CurrentScore int
}

// CompletionSummary is the accounting produced when an attempt completes.
type CompletionSummary struct {
	Attempt        Attempt
	TotalAnswers   int
	CorrectAnswers int
	Accuracy       int
}

// AttemptView is an attempt with its read-time question count.
type AttemptView struct {
	Attempt        Attempt
	TotalQuestions int
	ExpiresAt      *time.Time
}
