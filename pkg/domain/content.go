package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContentID uniquely identifies a quiz or a video.
type ContentID uuid.UUID

// String returns the canonical textual form used in page paths.
func (id ContentID) String() string { return uuid.UUID(id).String() }

// ContentKind tells which kind of page a content record is rendered on.
type ContentKind string

const (
	// ContentKindQuiz marks a quiz record, served under /quiz/<id>.
	ContentKindQuiz ContentKind = "quiz"
	// ContentKindVideo marks a video record, served under /video/<id>.
	ContentKindVideo ContentKind = "video"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	return k == ContentKindQuiz || k == ContentKindVideo
}

// Question is a single multiple-choice quiz question. Correct is the index of
// the right answer inside Options.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// Quiz holds the quiz-specific part of a content record.
type Quiz struct {
	Questions []Question `json:"questions"`
}

// Video holds the video-specific part of a content record.
type Video struct {
	// URL is the embeddable address of the video.
	URL string `json:"url"`
	// Duration is a free-form display duration such as "25:30".
	Duration string `json:"duration,omitempty"`
}

// Content is a quiz or video page. Exactly one of Quiz and Video is set,
// matching Kind.
type Content struct {
	// ID is the unique identifier of the content.
	ID ContentID `json:"id"`
	// AuthorID is the user who created the content.
	AuthorID UserID `json:"authorId"`
	// Kind decides the page the content is rendered on.
	Kind ContentKind `json:"kind"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`

	Quiz  *Quiz  `json:"quiz,omitempty"`
	Video *Video `json:"video,omitempty"`

	// CreatedAt is the time the content was created.
	CreatedAt time.Time `json:"createdAt"`
	// DeletedAt marks when the content was soft-deleted; zero value means not deleted.
	DeletedAt time.Time `json:"-"`
}

// ContentPath returns the in-app path of the page rendering the given content.
func ContentPath(kind ContentKind, id ContentID) string {
	return "/" + string(kind) + "/" + id.String()
}

// Path returns the in-app path of the content page, e.g. /quiz/<id>.
func (c Content) Path() string { return ContentPath(c.Kind, c.ID) }
