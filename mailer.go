package main

import "log"

// Mailer delivers account emails. The real SMTP/template integration is an
// external collaborator; LogMailer stands in for local runs and tests.
type Mailer interface {
	SendPasswordResetEmail(to, token string) error
	SendPasswordChangeConfirmation(to string) error
}

type LogMailer struct{}

func (LogMailer) SendPasswordResetEmail(to, token string) error {
	log.Printf("mail: password reset for %s (token %s)", to, token)
	return nil
}

func (LogMailer) SendPasswordChangeConfirmation(to string) error {
	log.Printf("mail: password changed for %s", to)
	return nil
}
