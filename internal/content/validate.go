package content

import (
	"errors"
	"fmt"
	"qrportal/pkg/domain"
	"strings"
)

// minOptions is the smallest number of answers a quiz question may offer.
const minOptions = 2

// validate checks c and returns it with trimmed text fields and a normalized
// video URL.
func validate(c domain.Content) (domain.Content, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.Category = strings.TrimSpace(c.Category)
	if c.Title == "" {
		return c, errors.New("title is required")
	}

	switch c.Kind {
	case domain.ContentKindQuiz:
		if c.Video != nil {
			return c, errors.New("a quiz cannot carry video details")
		}

		return c, validateQuiz(c.Quiz)
	case domain.ContentKindVideo:
		if c.Quiz != nil {
			return c, errors.New("a video cannot carry quiz questions")
		}
		if c.Video == nil {
			return c, errors.New("video details are required")
		}
		u, err := NormalizeVideoURL(c.Video.URL)
		if err != nil {
			return c, fmt.Errorf("invalid video URL: %w", err)
		}
		v := *c.Video
		v.URL = u
		v.Duration = strings.TrimSpace(v.Duration)
		c.Video = &v

		return c, nil
	default:
		return c, fmt.Errorf("unknown content kind %q", c.Kind)
	}
}

func validateQuiz(q *domain.Quiz) error {
	if q == nil || len(q.Questions) == 0 {
		return errors.New("a quiz needs at least one question")
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Question) == "" {
			return fmt.Errorf("question %d: text is required", i+1)
		}
		if len(question.Options) < minOptions {
			return fmt.Errorf("question %d: at least %d options are required", i+1, minOptions)
		}
		for j, o := range question.Options {
			if strings.TrimSpace(o) == "" {
				return fmt.Errorf("question %d: option %d is empty", i+1, j+1)
			}
		}
		if question.Correct < 0 || question.Correct >= len(question.Options) {
			return fmt.Errorf("question %d: correct answer %d is out of range", i+1, question.Correct)
		}
	}

	return nil
}
