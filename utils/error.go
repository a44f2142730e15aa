package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrorDuplicate      = errors.New("duplicate")
)
