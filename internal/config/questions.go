package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultPresetQuestions = []string{
	"Please introduce yourself in one minute.",
	"Describe the role you are applying for.",
	"Tell me about the project you are most proud of.",
	"Tell me about the most difficult project you have worked on.",
	"Which technology are you most confident in?",
	"Which technology do you feel you still lack?",
	"What value do you consider most important at work?",
	"What was the hardest experience in your life so far?",
	"Why did you choose this profession?",
	"How would your colleagues and friends describe you?",
	"What are your strengths and weaknesses?",
	"How do you usually deal with stress?",
	"What is your favourite book?",
	"What are your hobbies?",
	"Why do you want to join our company in particular?",
	"What would you do if a colleague made a mistake?",
}

// questionBank represents the structure of questions.yaml
type questionBank struct {
	Questions []string `yaml:"questions"`
}

// DefaultQuestions returns a copy of the built-in question bank.
func DefaultQuestions() []string {
	return append([]string{}, defaultPresetQuestions...)
}

// LoadQuestions reads the preset question bank. A missing file falls back to
// the built-in questions; an empty or malformed file is an error.
func LoadQuestions(path string) ([]string, error) {
	if path == "" {
		return DefaultQuestions(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Warning: questions file not found at %s, using default questions\n", path)
		return DefaultQuestions(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}

	var bank questionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse questions YAML: %w", err)
	}

	questions := make([]string, 0, len(bank.Questions))
	for _, q := range bank.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("questions file contains no questions: %s", path)
	}

	return questions, nil
}
