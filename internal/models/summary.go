package models

// Summary counts the results of a run. Failed includes skipped rows.
type Summary struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int

	Skipped   int
	NotFound  int
	APIErrors int

	Aborted    bool
	AbortIndex int
}

// Record adds one classified, non-fatal outcome to the counters.
func (s *Summary) Record(kind OutcomeKind) {
	s.Processed++
	switch kind {
	case OutcomeSuccess:
		s.Succeeded++
		return
	case OutcomeSkippedEmptyAddress:
		s.Skipped++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeTransientAPIError:
		s.APIErrors++
	case OutcomeFatalError:
	}
	s.Failed++
}
