package Models

import (
	"fmt"

	"gorm.io/gorm"
)

var defaultQuestions = []string{
	"Is the work area clean and free of obstructions?",
	"Are all machine guards in place and undamaged?",
	"Are emergency stop buttons accessible and working?",
	"Is the required PPE available and being worn?",
	"Are tools stored in their designated locations?",
	"Are work instructions posted and up to date?",
	"Are there no oil, water or coolant leaks?",
	"Are scrap and rework bins identified and not overflowing?",
	"Are fire extinguishers inspected and unobstructed?",
	"Are pending maintenance issues recorded on the board?",
}

type seedLine struct {
	area       Area
	number     int
	name       string
	operations []string
}

var defaultLines = []seedLine{
	{AreaStamping, 1, "Press Line 1", []string{"Blanking", "Deep drawing", "Trimming"}},
	{AreaStamping, 2, "Press Line 2", []string{"Blanking", "Piercing"}},
	{AreaWelding, 1, "Welding Cell A", []string{"Spot welding", "Stud welding"}},
	{AreaWelding, 2, "Welding Cell B", []string{"MIG welding", "Sealing", "Final inspection"}},
}

// Seed inserts the default questions and production catalog into empty
// tables and returns the number of rows created.
func Seed(db *gorm.DB) (int, error) {
	created := 0

	var questionCount int64
	if err := db.Model(&Question{}).Count(&questionCount).Error; err != nil {
		return created, err
	}
	if questionCount == 0 {
		questions := make([]Question, len(defaultQuestions))
		for i, text := range defaultQuestions {
			questions[i] = Question{Number: i + 1, Text: text}
		}
		if err := db.Create(&questions).Error; err != nil {
			return created, fmt.Errorf("questions: %w", err)
		}
		created += len(questions)
	}

	var lineCount int64
	if err := db.Model(&ProductionLine{}).Count(&lineCount).Error; err != nil {
		return created, err
	}
	if lineCount > 0 {
		return created, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, l := range defaultLines {
			line := ProductionLine{Area: l.area, LineNumber: l.number, LineName: l.name}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("production line %s: %w", l.name, err)
			}
			created++
			for i, name := range l.operations {
				op := Operation{ProductionLineID: line.ID, OperationNumber: (i + 1) * 10, OperationName: name}
				if err := tx.Create(&op).Error; err != nil {
					return fmt.Errorf("operation %s: %w", name, err)
				}
				created++
			}
		}
		return nil
	})
	return created, err
}
