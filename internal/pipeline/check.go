package pipeline

import (
	"context"
	"errors"
)

// Check is the outcome of one connectivity probe.
type Check struct {
	Name string
	Err  error
}

func (c Check) OK() bool {
	return c.Err == nil
}

var errSMTPUnreachable = errors.New("could not connect or authenticate")

// Check probes the record source and the mail relay without running a report.
func (s *Service) Check(ctx context.Context) []Check {
	checks := []Check{
		{Name: "Accounting API", Err: s.deps.Source.Ping(ctx)},
	}

	smtp := Check{Name: "SMTP"}

	switch sender := s.deps.Sender.(type) {
	case nil:
		smtp.Err = errors.New("not configured")
	case unavailable:
		smtp.Err = sender.err
	default:
		if !sender.Verify(ctx) {
			smtp.Err = errSMTPUnreachable
		}
	}

	return append(checks, smtp)
}
