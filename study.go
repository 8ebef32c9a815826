package tvstudy

import "context"

// Study is one open study: its full set of Sources as enumerated by the
// StationDB collaborator, keyed by source key. Per §3, Sources and
// Geographies live as long as the study; Study grids and points are
// rebuilt per scenario (see Scenario).
type Study struct {
	Key     int
	Sources map[int]*Source
}

// OpenStudy enumerates studyKey's sources and loads each non-parent
// source's pattern and (if it has no Geography) contour. A DTS parent
// holds no operating parameters of its own (§3) so its pattern/contour
// are never queried.
func (e *Engine) OpenStudy(ctx context.Context, studyKey int) (*Study, error) {
	srcs, err := e.Station.Sources(ctx, studyKey)
	if err != nil {
		return nil, &Error{Kind: KindDatabaseIO, Op: "OpenStudy", Err: err}
	}

	st := &Study{Key: studyKey, Sources: make(map[int]*Source, len(srcs))}
	for _, s := range srcs {
		st.Sources[s.Key] = s
		if s.IsDTSParent() {
			continue
		}
		hp, vp, err := e.Station.Pattern(ctx, s.Key)
		if err != nil {
			return nil, &Error{Kind: KindDatabaseIO, Op: "OpenStudy", Err: err}
		}
		s.Horizontal, s.Vertical = hp, vp

		if s.Geography == nil {
			c, err := e.Station.Contour(ctx, s.Key)
			if err != nil {
				return nil, &Error{Kind: KindDatabaseIO, Op: "OpenStudy", Err: err}
			}
			s.Contour = c
		}
	}
	return st, nil
}

// CloseStudy releases a study's per-process resources. The terrain
// cache, curve tables, and population pools are process-wide (§5) and
// outlive any one Study, so there is nothing to release at this scope
// beyond letting st's Sources be garbage collected; CloseStudy exists to
// complete the "open study / run scenario / close study" three-call
// contract §6 requires of the top-level caller.
func (e *Engine) CloseStudy(st *Study) error {
	return nil
}
