package quest

import "errors"

var (
	// ErrNotSignedIn is returned for operations on an identity with no live session.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrBusy is returned when the same kind of request is already running for the learner.
	ErrBusy = errors.New("a request of this kind is already in progress")
	// ErrStale is returned when an AI response arrived after the session moved on.
	// The response has been discarded.
	ErrStale = errors.New("the session changed while the request was running")
	// ErrNoTopics is returned when a plan is requested before any syllabus was processed.
	ErrNoTopics = errors.New("no syllabus topics yet")
	// ErrNoPlan is returned for mission operations before a plan exists.
	ErrNoPlan = errors.New("no study plan yet")
	// ErrMissionNotFound is returned for a mission ID not in the current plan.
	ErrMissionNotFound = errors.New("mission not found")
	// ErrQuizNotLoaded is returned when answers are submitted before the quiz was fetched.
	ErrQuizNotLoaded = errors.New("quiz not loaded for this mission")
	// ErrSyllabusNotFound is returned for an unknown library syllabus.
	ErrSyllabusNotFound = errors.New("syllabus not found")
)
