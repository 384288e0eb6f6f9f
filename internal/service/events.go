package service

import (
	"github.com/wb-go/wbf/ginext"

	"eventportal/internal/dto"
	"eventportal/internal/portal"
)

func (s *service) ListEvents(ctx *ginext.Context) {
	events, err := s.portal.ListEvents(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to list events")
		return
	}
	dto.SuccessResponse(ctx, dto.NewEventsResponse(events))
}

func (s *service) GetEvent(ctx *ginext.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	e, err := s.portal.GetEvent(ctx, id)
	if err != nil {
		s.fail(ctx, err, "failed to get event")
		return
	}
	dto.SuccessResponse(ctx, dto.NewEventResponse(e))
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	p := caller(ctx)
	if p == nil {
		return
	}

	var req dto.CreateEventRequest
	if !s.bindJSON(ctx, &req) {
		return
	}

	e, err := s.portal.AddEvent(ctx, p.UserID, portal.NewEvent{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Type:        req.Type,
		Capacity:    req.Capacity,
		Price:       req.Price,
	})
	if err != nil {
		s.fail(ctx, err, "failed to create event")
		return
	}
	dto.SuccessCreatedResponse(ctx, dto.NewEventResponse(e))
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	if err := s.portal.DeleteEvent(ctx, id); err != nil {
		s.fail(ctx, err, "failed to delete event")
		return
	}
	dto.SuccessResponse(ctx, map[string]any{"id": id, "is_active": false})
}

func (s *service) EventStats(ctx *ginext.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	stats, err := s.portal.EventStats(ctx, id)
	if err != nil {
		s.fail(ctx, err, "failed to get event stats")
		return
	}
	dto.SuccessResponse(ctx, dto.NewEventStatsResponse(stats))
}

func (s *service) Dashboard(ctx *ginext.Context) {
	entries, err := s.portal.Dashboard(ctx)
	if err != nil {
		s.fail(ctx, err, "failed to build dashboard")
		return
	}

	out := make([]dto.DashboardEntry, 0, len(entries))
	for i := range entries {
		out = append(out, dto.DashboardEntry{
			Event: dto.NewEventResponse(&entries[i].Event),
			Stats: dto.NewEventStatsResponse(entries[i].Stats),
		})
	}
	dto.SuccessResponse(ctx, out)
}
