package models

type ChatState string

const (
	ChatIdle       ChatState = "idle"
	ChatResponding ChatState = "responding"
)
