// Package domain defines the persistence models for check-ins, questions,
// the six extracted sub-entity types, and presence sessions. These types are
// mapped with GORM and form the core data layer of the journaling backend.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Question categories form a closed enumeration used by the prompt selector.
const (
	CategoryMorning     = "morning"
	CategoryAfternoon   = "afternoon"
	CategoryEndOfDay    = "end_of_day"
	CategoryReturn      = "return"
	CategoryWeekly      = "weekly"
	CategoryOpen        = "open"
	CategoryFollowUp    = "follow_up"
	CategoryPostMeeting = "post_meeting"
)

// ValidCategory reports whether s is a member of the category enumeration.
func ValidCategory(s string) bool {
	switch s {
	case CategoryMorning, CategoryAfternoon, CategoryEndOfDay, CategoryReturn,
		CategoryWeekly, CategoryOpen, CategoryFollowUp, CategoryPostMeeting:
		return true
	}
	return false
}

// StringList stores a slice of strings as a JSON array in a TEXT column.
// A nil or empty list round-trips as "[]".
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("StringList: unsupported source type")
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// GormDataType tells GORM to map StringList to a TEXT column.
func (StringList) GormDataType() string { return "text" }

// Checkin is one user-submitted transcript plus its originating prompt and
// timestamp. Created by intake with Processed=false; the extraction pipeline
// flips Processed to true exactly once. Rows are never deleted.
//
// RecordedAt is the moment the user spoke/typed the check-in; all sub-entity
// rows extracted from it copy this value into their LoggedAt.
type Checkin struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_user_checkins,priority:1"`
	Transcript   string    `json:"transcript"    gorm:"type:text;not null"`
	QuestionID   *string   `json:"question_id"   gorm:"type:char(36)"`
	QuestionText *string   `json:"question_text" gorm:"type:text"`
	SessionID    *string   `json:"session_id"    gorm:"type:char(36)"`
	RecordedAt   time.Time `json:"recorded_at"   gorm:"not null;index:idx_user_checkins,priority:2"`
	Processed    bool      `json:"processed"     gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for Checkin.
func (Checkin) TableName() string { return "checkins" }

// Question is a stored prompt the selector can ask. Seed questions are created
// manually; follow-up questions are generated by extraction with
// IsGenerated=true and Category "follow_up". After creation only the Active
// flag may change (soft retire).
type Question struct {
	ID              string    `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID          string    `json:"user_id"           gorm:"type:varchar(64);not null;index:idx_user_questions"`
	Text            string    `json:"text"              gorm:"type:text;not null"`
	Category        string    `json:"category"          gorm:"type:varchar(16);not null;index"`
	Active          bool      `json:"active"            gorm:"not null;default:true"`
	IsGenerated     bool      `json:"is_generated"      gorm:"not null;default:false"`
	SourceCheckinID *string   `json:"source_checkin_id" gorm:"type:char(36)"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for Question.
func (Question) TableName() string { return "questions" }

// Meal types emitted by the extraction model.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// Meal is an extracted meal mention.
type Meal struct {
	ID          string     `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string     `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_meals,priority:1"`
	CheckinID   string     `json:"checkin_id"  gorm:"type:char(36);not null;index"`
	MealType    string     `json:"meal_type"   gorm:"type:varchar(16);not null;check:meal_type IN ('breakfast','lunch','dinner','snack')"`
	Description *string    `json:"description" gorm:"type:text"`
	Foods       StringList `json:"foods"       gorm:"type:text"`
	LoggedAt    time.Time  `json:"logged_at"   gorm:"not null;index:idx_user_meals,priority:2"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName returns the database table name for Meal.
func (Meal) TableName() string { return "meals" }

// MoodEntry is an extracted mood/energy reading (both 1-10).
type MoodEntry struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string     `json:"user_id"      gorm:"type:varchar(64);not null;index:idx_user_mood,priority:1"`
	CheckinID   string     `json:"checkin_id"   gorm:"type:char(36);not null;index"`
	MoodScore   int        `json:"mood_score"   gorm:"not null;check:mood_score BETWEEN 1 AND 10"`
	EnergyScore int        `json:"energy_score" gorm:"not null;check:energy_score BETWEEN 1 AND 10"`
	MoodTags    StringList `json:"mood_tags"    gorm:"type:text"`
	Notes       *string    `json:"notes"        gorm:"type:text"`
	LoggedAt    time.Time  `json:"logged_at"    gorm:"not null;index:idx_user_mood,priority:2"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName returns the database table name for MoodEntry.
func (MoodEntry) TableName() string { return "mood_entries" }

// Work entry statuses emitted by the extraction model.
const (
	WorkStarting   = "starting"
	WorkInProgress = "in_progress"
	WorkCompleted  = "completed"
	WorkBlocked    = "blocked"
)

// WorkEntry is an extracted piece of work activity.
type WorkEntry struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey"`
	UserID          string    `json:"user_id"          gorm:"type:varchar(64);not null;index:idx_user_work,priority:1"`
	CheckinID       string    `json:"checkin_id"       gorm:"type:char(36);not null;index"`
	Project         *string   `json:"project"          gorm:"type:text"`
	TaskDescription *string   `json:"task_description" gorm:"type:text"`
	Status          string    `json:"status"           gorm:"type:varchar(16);not null;check:status IN ('starting','in_progress','completed','blocked')"`
	LoggedAt        time.Time `json:"logged_at"        gorm:"not null;index:idx_user_work,priority:2"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for WorkEntry.
func (WorkEntry) TableName() string { return "work_entries" }

// Worry is an extracted concern with a category and 1-5 intensity.
type Worry struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	CheckinID   string    `json:"checkin_id"  gorm:"type:char(36);not null;index"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Category    string    `json:"category"    gorm:"type:varchar(16);not null;check:category IN ('work','health','financial','relationship','general')"`
	Intensity   int       `json:"intensity"   gorm:"not null;check:intensity BETWEEN 1 AND 5"`
	LoggedAt    time.Time `json:"logged_at"   gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Worry.
func (Worry) TableName() string { return "worries" }

// Anticipation is something the user is looking forward to. TargetDate is
// kept as the free-form string the model emitted; it is display-only.
type Anticipation struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	CheckinID   string    `json:"checkin_id"  gorm:"type:char(36);not null;index"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Category    string    `json:"category"    gorm:"type:varchar(16);not null;check:category IN ('event','goal','social','personal')"`
	TargetDate  *string   `json:"target_date" gorm:"type:text"`
	LoggedAt    time.Time `json:"logged_at"   gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Anticipation.
func (Anticipation) TableName() string { return "anticipations" }

// PersonMention records a person referenced in a transcript and the sentiment
// of the mention.
type PersonMention struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	CheckinID  string    `json:"checkin_id"  gorm:"type:char(36);not null;index"`
	PersonName string    `json:"person_name" gorm:"type:varchar(255);not null"`
	Context    *string   `json:"context"     gorm:"type:text"`
	Sentiment  string    `json:"sentiment"   gorm:"type:varchar(16);not null;check:sentiment IN ('positive','neutral','negative')"`
	LoggedAt   time.Time `json:"logged_at"   gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for PersonMention.
func (PersonMention) TableName() string { return "people_mentions" }

// PresenceSession tracks one arrival/departure pair. A nil DepartedAt means
// the session is still open and is treated as ongoing when computing durations.
type PresenceSession struct {
	ID         string     `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string     `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_presence,priority:1"`
	ArrivedAt  time.Time  `json:"arrived_at"  gorm:"not null;index:idx_user_presence,priority:2"`
	DepartedAt *time.Time `json:"departed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName returns the database table name for PresenceSession.
func (PresenceSession) TableName() string { return "presence_sessions" }
