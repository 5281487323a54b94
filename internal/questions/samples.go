package questions

import "github.com/aura-trivia/backend/internal/models"

// Samples returns the built-in starter templates.
func Samples() []models.Question {
	return []models.Question{
		{
			Text:          "¿Cuál es el lenguaje de programación más popular según el índice TIOBE?",
			OptionA:       "Python",
			OptionB:       "JavaScript",
			OptionC:       "Java",
			OptionD:       "C++",
			CorrectAnswer: "A",
		},
		{
			Text:          "¿Qué significa la sigla API en programación?",
			OptionA:       "Application Programming Interface",
			OptionB:       "Advanced Programming Integration",
			OptionC:       "Automated Program Interface",
			OptionD:       "Application Process Integration",
			CorrectAnswer: "A",
		},
		{
			Text:          "¿Cuál es el framework de JavaScript desarrollado por Facebook?",
			OptionA:       "Angular",
			OptionB:       "Vue.js",
			OptionC:       "React",
			OptionD:       "Svelte",
			CorrectAnswer: "C",
		},
		{
			Text:          "¿Qué es Docker?",
			OptionA:       "Un sistema operativo",
			OptionB:       "Una plataforma de contenedores",
			OptionC:       "Un lenguaje de programación",
			OptionD:       "Una base de datos",
			CorrectAnswer: "B",
		},
		{
			Text:          "¿Qué significa HTML?",
			OptionA:       "HyperText Markup Language",
			OptionB:       "High Tech Modern Language",
			OptionC:       "Home Tool Markup Language",
			OptionD:       "Hyperlink and Text Markup Language",
			CorrectAnswer: "A",
		},
	}
}
