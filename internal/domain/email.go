package domain

import "time"

// Email is a notification message as delivered by the mailbox collaborator.
type Email struct {
	MessageID string
	Subject   string
	From      string
	HTML      string
	Text      string
	Date      time.Time // as sent, in the sender's offset
}
