// Package calendar is the access layer between external callers and the
// storage layer. It validates input shapes, stamps timestamps and maps
// storage results onto the wire-facing record shapes.
package calendar

import (
	"context"
	"fmt"
	"iter"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
)

// Field length limits enforced before anything reaches storage.
const (
	MaxUsernameLength    = 64
	MaxTitleLength       = 256
	MaxDescriptionLength = 4096
)

type DBLayer interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	ListEvents(ctx context.Context, win *models.TimeWindow) ([]models.Event, error)
	Events(ctx context.Context, win *models.TimeWindow) iter.Seq2[models.Event, error]
}

type CalendarService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewCalendarService(db DBLayer, log *logger.Logger) *CalendarService {
	return &CalendarService{DB: db, Logger: log}
}

// ---------------- USERS ----------------

// CreateUser validates the username, stamps created_at and persists the
// user. A name colliding case-insensitively with an existing one fails with
// utils.ErrAlreadyExists.
func (s *CalendarService) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	if in.Username == "" {
		return nil, utils.Validation("username", "must not be empty")
	}
	if len(in.Username) > MaxUsernameLength {
		return nil, utils.Validation("username", fmt.Sprintf("must not exceed %d characters", MaxUsernameLength))
	}

	user := models.User{
		Username:  in.Username,
		CreatedAt: utils.NowUnix(),
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logUser("CREATE", user.Username, "user created")
	return &user, nil
}

func (s *CalendarService) GetUser(ctx context.Context, username string) (*models.User, error) {
	return s.DB.GetUserByUsername(ctx, username)
}

func (s *CalendarService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.DB.ListUsers(ctx)
}

// ---------------- EVENTS ----------------

// CreateEvent validates the input shape, assigns created_at and persists
// the event. The id comes back system-assigned, edited_at stays null until
// the first update.
func (s *CalendarService) CreateEvent(ctx context.Context, in models.NewEvent) (*models.Event, error) {
	event := models.Event{
		Title:        in.Title,
		Description:  in.Description,
		Color:        in.Color,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		LocationLng:  in.LocationLng,
		LocationLat:  in.LocationLat,
		LocationName: in.LocationName,
		CreatedAt:    utils.NowUnix(),
	}
	if err := validateEvent(&event); err != nil {
		return nil, err
	}

	if err := s.DB.CreateEvent(ctx, &event); err != nil {
		return nil, err
	}
	s.logEvent("CREATE", event.ID, "event created")
	return &event, nil
}

func (s *CalendarService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return s.DB.GetEventByID(ctx, id)
}

// UpdateEvent applies only the supplied patch fields onto the stored row,
// re-validates the merged result and stamps edited_at. A patch that breaks
// an invariant is rejected before anything is written, leaving the stored
// row unchanged.
func (s *CalendarService) UpdateEvent(ctx context.Context, id int64, patch models.EventPatch) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := applyPatch(*event, patch)
	if err := validateEvent(&merged); err != nil {
		return nil, err
	}

	now := utils.NowUnix()
	merged.EditedAt = &now

	if err := s.DB.UpdateEvent(ctx, merged); err != nil {
		return nil, err
	}
	s.logEvent("UPDATE", merged.ID, "event updated")
	return &merged, nil
}

func (s *CalendarService) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.logEvent("DELETE", id, "event deleted")
	return nil
}

// ListEvents returns events ordered by ascending start date, restricted to
// the window when one is given.
func (s *CalendarService) ListEvents(ctx context.Context, win *models.TimeWindow) ([]models.Event, error) {
	if err := validateWindow(win); err != nil {
		return nil, err
	}
	return s.DB.ListEvents(ctx, win)
}

// Events is the streaming form of ListEvents for callers that want to walk
// the rows lazily.
func (s *CalendarService) Events(ctx context.Context, win *models.TimeWindow) (iter.Seq2[models.Event, error], error) {
	if err := validateWindow(win); err != nil {
		return nil, err
	}
	return s.DB.Events(ctx, win), nil
}

// ---------------- VALIDATION ----------------

func validateEvent(event *models.Event) error {
	if event.Title == "" {
		return utils.Validation("title", "must not be empty")
	}
	if len(event.Title) > MaxTitleLength {
		return utils.Validation("title", fmt.Sprintf("must not exceed %d characters", MaxTitleLength))
	}
	if event.Description != nil && len(*event.Description) > MaxDescriptionLength {
		return utils.Validation("description", fmt.Sprintf("must not exceed %d characters", MaxDescriptionLength))
	}
	if event.StartDate < 0 {
		return utils.Validation("startDate", "must not be negative")
	}
	if event.EndDate < 0 {
		return utils.Validation("endDate", "must not be negative")
	}
	if event.EndDate < event.StartDate {
		return utils.Validation("endDate", "must not precede startDate")
	}
	if (event.LocationLng == nil) != (event.LocationLat == nil) {
		return utils.Validation("location", "longitude and latitude must be set together")
	}
	return nil
}

func validateWindow(win *models.TimeWindow) error {
	if win == nil {
		return nil
	}
	if win.From < 0 || win.To < 0 {
		return utils.Validation("window", "bounds must not be negative")
	}
	if win.To < win.From {
		return utils.Validation("window", "'to' must not precede 'from'")
	}
	return nil
}

func applyPatch(event models.Event, patch models.EventPatch) models.Event {
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Description != nil {
		event.Description = patch.Description
	}
	if patch.Color != nil {
		event.Color = patch.Color
	}
	if patch.StartDate != nil {
		event.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		event.EndDate = *patch.EndDate
	}
	if patch.LocationLng != nil {
		event.LocationLng = patch.LocationLng
	}
	if patch.LocationLat != nil {
		event.LocationLat = patch.LocationLat
	}
	if patch.LocationName != nil {
		event.LocationName = patch.LocationName
	}
	return event
}

// Logging is optional so tests can construct the service with just a mock
// DB layer.
func (s *CalendarService) logUser(action, username, message string) {
	if s.Logger != nil {
		s.Logger.LogUser(action, username, message)
	}
}

func (s *CalendarService) logEvent(action string, id int64, message string) {
	if s.Logger != nil {
		s.Logger.LogEvent(action, id, message)
	}
}
