package service

import "errors"

var (
	ErrInvalidOrder = errors.New("service: invalid order")
	ErrBackpressure = errors.New("service: quote ring full")
	ErrRaggedBatch  = errors.New("service: batch is not a whole number of records")
)
