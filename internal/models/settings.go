package models

type Settings struct {
	WelcomeMessage string
	FinalMessage   string
}
