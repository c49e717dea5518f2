package domain

import "time"

// Language is the closed set of languages a course can teach.
type Language string

const (
	LanguageHindi     Language = "Hindi"
	LanguageEnglish   Language = "English"
	LanguageTamil     Language = "Tamil"
	LanguageTelugu    Language = "Telugu"
	LanguageBengali   Language = "Bengali"
	LanguageMarathi   Language = "Marathi"
	LanguageGujarati  Language = "Gujarati"
	LanguageKannada   Language = "Kannada"
	LanguageMalayalam Language = "Malayalam"
	LanguagePunjabi   Language = "Punjabi"
	LanguageUrdu      Language = "Urdu"
	LanguageOther     Language = "Other"
)

var languages = []Language{
	LanguageHindi, LanguageEnglish, LanguageTamil, LanguageTelugu,
	LanguageBengali, LanguageMarathi, LanguageGujarati, LanguageKannada,
	LanguageMalayalam, LanguagePunjabi, LanguageUrdu, LanguageOther,
}

func (l Language) Valid() bool {
	for _, known := range languages {
		if l == known {
			return true
		}
	}
	return false
}

// Level is the course difficulty tier.
type Level string

const (
	LevelFoundation   Level = "foundation"
	LevelProfessional Level = "professional"
	LevelMastery      Level = "mastery"
)

func (l Level) Valid() bool {
	switch l {
	case LevelFoundation, LevelProfessional, LevelMastery:
		return true
	default:
		return false
	}
}

// Category is the closed set of course categories.
type Category string

const (
	CategoryGrammar       Category = "grammar"
	CategoryVocabulary    Category = "vocabulary"
	CategoryPronunciation Category = "pronunciation"
	CategoryConversation  Category = "conversation"
	CategoryExamPrep      Category = "exam-prep"
	CategoryCultural      Category = "cultural"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGrammar, CategoryVocabulary, CategoryPronunciation,
		CategoryConversation, CategoryExamPrep, CategoryCultural:
		return true
	default:
		return false
	}
}

// Course is a catalog entry. InstructorID is fixed at creation and
// EnrolledCount only ever grows.
type Course struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Language      Language  `json:"language"`
	Level         Level     `json:"level"`
	Category      Category  `json:"category"`
	Duration      string    `json:"duration"`
	Modules       int       `json:"modules"`
	IsPublished   bool      `json:"isPublished"`
	EnrolledCount int64     `json:"enrolledCount"`
	InstructorID  string    `json:"instructor"`
	Tags          []string  `json:"tags"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CoursePatch lists the mutable course fields; nil means unchanged.
type CoursePatch struct {
	Title       *string
	Description *string
	Language    *Language
	Level       *Level
	Category    *Category
	Duration    *string
	Modules     *int
	IsPublished *bool
	Tags        *[]string
}

// Empty reports whether the patch changes nothing.
func (p CoursePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Language == nil &&
		p.Level == nil && p.Category == nil && p.Duration == nil &&
		p.Modules == nil && p.IsPublished == nil && p.Tags == nil
}
