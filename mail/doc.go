// Package mail renders and delivers the emails that carry one-time
// credentials.
//
// A [Sender] delivers a rendered [Message]. [SMTPSender] talks to a relay,
// [LogSender] writes messages to a zerolog logger for local development.
// [Templates] renders sign-in, email-verification and password-reset
// messages from text/template sources.
package mail
