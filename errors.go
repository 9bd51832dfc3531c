package xtiff

import "fmt"

// ShapeError reports an array rank or axis size that is invalid for the
// normalizer or the selected profile.
type ShapeError struct {
	msg string
}

func (err ShapeError) Error() string {
	return err.msg
}

func shapeErrorf(format string, args ...interface{}) ShapeError {
	return ShapeError{msg: fmt.Sprintf(format, args...)}
}

// ProfileError reports a dtype or feature that the selected profile does not
// support.
type ProfileError struct {
	msg string
}

func (err ProfileError) Error() string {
	return err.msg
}

func profileErrorf(format string, args ...interface{}) ProfileError {
	return ProfileError{msg: fmt.Sprintf(format, args...)}
}

// ParameterError reports mutually exclusive or out-of-range explicit settings.
type ParameterError struct {
	msg string
}

func (err ParameterError) Error() string {
	return err.msg
}

func parameterErrorf(format string, args ...interface{}) ParameterError {
	return ParameterError{msg: fmt.Sprintf(format, args...)}
}

// A Warning is a non-fatal parameter conflict: the supplied value is ignored
// or overridden, and the resolved value is used. Warnings are delivered to the
// handler installed with WithWarningHandler.
type Warning struct {
	// Param names the offending option.
	Param   string
	Message string
}

func (w Warning) String() string {
	return w.Param + ": " + w.Message
}

// A WarningHandler receives non-fatal parameter conflicts.
type WarningHandler func(Warning)
