package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
	"github.com/lorrc/defect-triage/internal/core/jql"
	"github.com/lorrc/defect-triage/internal/core/ports"
)

// SummaryService computes the six dashboard counters with one count query
// each.
type SummaryService struct {
	tracker ports.TrackerClient
	builder *jql.Builder
}

var _ ports.SummaryService = (*SummaryService)(nil)

// NewSummaryService creates a new summary service
func NewSummaryService(tracker ports.TrackerClient, builder *jql.Builder) ports.SummaryService {
	return &SummaryService{
		tracker: tracker,
		builder: builder,
	}
}

type metricQuery struct {
	metric domain.Metric
	jql    string
}

// Summarize returns every counter or an error; it never returns a partial
// record. An explicit date range with a missing bound yields a zeroed
// record without contacting the tracker.
func (s *SummaryService) Summarize(ctx context.Context, criteria domain.FilterCriteria) (*domain.SummaryRecord, error) {
	if !criteria.DateWindow.Complete() {
		return &domain.SummaryRecord{}, nil
	}

	// 1. Build every query up front so a bad filter issues no calls.
	queries, err := s.queries(criteria)
	if err != nil {
		return nil, criteriaError(err)
	}

	// 2. Fan out and wait for all of them. A failure does not cancel the
	// siblings; the result is discarded either way.
	counts := make([]int, len(queries))
	errs := make([]error, len(queries))

	var g errgroup.Group
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			res, err := s.tracker.Search(ctx, q.jql, ports.SearchOptions{MaxResults: 0})
			if err != nil {
				errs[i] = err
				return err
			}
			if res != nil {
				counts[i] = res.Total
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		failed := make(map[string]error)
		for i, e := range errs {
			if e != nil {
				metric := string(queries[i].metric)
				failed[metric] = apperrors.NewUpstreamError("count "+metric, e)
			}
		}
		return nil, apperrors.NewAggregateError(failed)
	}

	// 3. Assemble by metric, not by completion order.
	record := &domain.SummaryRecord{}
	for i, q := range queries {
		record.Set(q.metric, counts[i])
	}
	return record, nil
}

func (s *SummaryService) queries(criteria domain.FilterCriteria) ([]metricQuery, error) {
	with := func(c domain.Category) domain.FilterCriteria {
		return domain.FilterCriteria{
			Category:   c,
			DateWindow: criteria.DateWindow,
			Assignee:   criteria.Assignee,
		}
	}

	variants := []struct {
		metric   domain.Metric
		criteria domain.FilterCriteria
		extra    []jql.Expr
	}{
		{domain.MetricTriagePending, with(domain.CategoryTriagePending), nil},
		{domain.MetricInProgress, with(domain.CategoryOngoing), nil},
		{domain.MetricActiveP1, with(domain.CategoryOngoing), []jql.Expr{jql.PriorityIs(domain.P1PriorityName)}},
		{domain.MetricWaitingForInfo, with(domain.CategoryWaiting), nil},
		{domain.MetricCompleted, with(domain.CategoryDone), nil},
		{domain.MetricRejected, with(domain.CategoryRejected), nil},
	}

	out := make([]metricQuery, 0, len(variants))
	for _, v := range variants {
		q, err := s.builder.CountQuery(v.criteria, v.extra...)
		if err != nil {
			return nil, err
		}
		out = append(out, metricQuery{metric: v.metric, jql: q})
	}
	return out, nil
}
