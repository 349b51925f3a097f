package domain

// DefaultMaxChecked caps how many spaces may be checked at once.
const DefaultMaxChecked = 5

// Selection tracks the focused space and the checked set. The two are
// independent: checking never focuses and focusing never checks.
type Selection struct {
	FocusedID  *string  `json:"focused_id"`
	CheckedIDs []string `json:"checked_ids"`

	limit int
}

// NewSelection returns an empty selection with the given cap (<=0 means default).
func NewSelection(limit int) *Selection {
	if limit <= 0 {
		limit = DefaultMaxChecked
	}
	return &Selection{CheckedIDs: []string{}, limit: limit}
}

// Limit returns the checked-set cap.
func (s *Selection) Limit() int { return s.limit }

// IsChecked reports whether id is in the checked set.
func (s *Selection) IsChecked(id string) bool {
	for _, c := range s.CheckedIDs {
		if c == id {
			return true
		}
	}
	return false
}

// IsFocused reports whether id is the focused space.
func (s *Selection) IsFocused(id string) bool {
	return s.FocusedID != nil && *s.FocusedID == id
}

// Check adds id to the checked set. At capacity the set is left unchanged
// and ErrSelectionFull is returned.
func (s *Selection) Check(id string) error {
	if s.IsChecked(id) {
		return nil
	}
	if len(s.CheckedIDs) >= s.limit {
		return NewUserError(ErrSelectionFull, SelectionFullMessage(s.limit))
	}
	s.CheckedIDs = append(s.CheckedIDs, id)
	return nil
}

// Uncheck removes id from the checked set.
func (s *Selection) Uncheck(id string) {
	out := s.CheckedIDs[:0]
	for _, c := range s.CheckedIDs {
		if c != id {
			out = append(out, c)
		}
	}
	s.CheckedIDs = out
}

// ToggleCheck flips id's membership and reports the resulting state.
func (s *Selection) ToggleCheck(id string) (bool, error) {
	if s.IsChecked(id) {
		s.Uncheck(id)
		return false, nil
	}
	if err := s.Check(id); err != nil {
		return false, err
	}
	return true, nil
}

// Focus makes id the focused space, replacing any previous focus.
func (s *Selection) Focus(id string) {
	s.FocusedID = &id
}

// ToggleFocus focuses id, or clears the focus if id already has it.
func (s *Selection) ToggleFocus(id string) bool {
	if s.IsFocused(id) {
		s.FocusedID = nil
		return false
	}
	s.Focus(id)
	return true
}

// Unfocus clears the focus.
func (s *Selection) Unfocus() { s.FocusedID = nil }

// Prune drops ids that no longer exist.
func (s *Selection) Prune(exists func(id string) bool) {
	if s.FocusedID != nil && !exists(*s.FocusedID) {
		s.FocusedID = nil
	}
	out := s.CheckedIDs[:0]
	for _, c := range s.CheckedIDs {
		if exists(c) {
			out = append(out, c)
		}
	}
	s.CheckedIDs = out
}

// Snapshot returns an independent copy.
func (s *Selection) Snapshot() Selection {
	cp := Selection{CheckedIDs: append([]string{}, s.CheckedIDs...), limit: s.limit}
	if s.FocusedID != nil {
		id := *s.FocusedID
		cp.FocusedID = &id
	}
	return cp
}
