package cron

import "errors"

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrJobDisabled     = errors.New("job is disabled")
	ErrInvalidSchedule = errors.New("invalid schedule")
)
